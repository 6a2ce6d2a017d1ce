package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/auth"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/middleware"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"github.com/taskhub/taskhub-api/internal/services"
	"github.com/taskhub/taskhub-api/internal/sse"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// handlerTestEnv wires the full HTTP surface against an in-memory database,
// the same way cmd/server does against a real one.
type handlerTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	hub    *sse.Hub

	authService         *services.AuthService
	taskService         *services.TaskService
	userService         *services.UserService
	notificationService *services.NotificationService
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Task{},
		&models.Notification{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	cfg := &config.Config{
		JWTSecret:         "handler-test-secret",
		JWTExpiresHours:   1,
		VerificationHours: 24,
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := sse.NewHub()
	mailer := services.NewLogMailer("test@taskhub.local")

	authService := services.NewAuthService(userRepo, sessionRepo, mailer, cfg)
	userService := services.NewUserService(userRepo, mailer, cfg)
	notificationService := services.NewNotificationService(notificationRepo, hub, mailer)
	taskService := services.NewTaskService(taskRepo, userRepo, notificationService)

	authHandler := NewAuthHandler(authService)
	taskHandler := NewTaskHandler(taskService)
	userHandler := NewUserHandler(userService)
	notificationHandler := NewNotificationHandler(notificationService)

	r := gin.New()
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/set-password", authHandler.SetPassword)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/logout", middleware.RequireAuth(authService), authHandler.Logout)
	auth.POST("/revoke-session/:userId", middleware.RequireAuth(authService), authHandler.RevokeSessions)
	auth.GET("/me", middleware.RequireAuth(authService), authHandler.GetCurrentUser)

	tasks := api.Group("/tasks")
	tasks.Use(middleware.RequireAuth(authService))
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), taskHandler.CreateTask)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), taskHandler.DeleteTask)

	users := api.Group("/users")
	users.Use(middleware.RequireAuth(authService))
	users.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), userHandler.ListUsers)
	users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.CreateUser)
	users.GET("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.GetUser)
	users.PUT("/:id/role", middleware.RequireRoles(models.RoleAdmin), userHandler.UpdateUserRole)

	notifications := api.Group("/notifications")
	protected := notifications.Group("")
	protected.Use(middleware.RequireAuth(authService))
	protected.GET("", notificationHandler.ListNotifications)
	protected.GET("/unread/count", notificationHandler.UnreadCount)
	protected.PUT("/read/all", notificationHandler.MarkAllRead)
	protected.PUT("/:id/read", notificationHandler.MarkRead)
	protected.DELETE("/:id", notificationHandler.DeleteNotification)
	protected.DELETE("", notificationHandler.DeleteAll)

	return &handlerTestEnv{
		db:                  db,
		router:              r,
		hub:                 hub,
		authService:         authService,
		taskService:         taskService,
		userService:         userService,
		notificationService: notificationService,
	}
}

func (env *handlerTestEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// createUser seeds a verified account directly and returns it with a fresh
// bearer token.
func (env *handlerTestEnv) createUser(t *testing.T, username string, role models.Role) (*models.User, string) {
	t.Helper()

	user, err := env.authService.Register(services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "supersecret",
		Role:     role,
	})
	require.NoError(t, err)

	_, err = env.authService.VerifyEmail(*user.VerificationToken)
	require.NoError(t, err)

	token, _, err := env.authService.Login(username, "supersecret")
	require.NoError(t, err)

	return user, token
}

// createTask creates a task through the service layer on behalf of creator.
func (env *handlerTestEnv) createTask(t *testing.T, creator *models.User, title string, assigneeID *uint64, due time.Time) *models.Task {
	t.Helper()

	task, err := env.taskService.CreateTask(identityOf(creator), services.CreateTaskInput{
		Title:      title,
		DueDate:    due,
		AssignedTo: assigneeID,
	})
	require.NoError(t, err)
	return task
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func identityOf(user *models.User) auth.Identity {
	return auth.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}
