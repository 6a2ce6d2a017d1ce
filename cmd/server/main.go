package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/database"
	"github.com/taskhub/taskhub-api/internal/handlers"
	"github.com/taskhub/taskhub-api/internal/middleware"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"github.com/taskhub/taskhub-api/internal/scheduler"
	"github.com/taskhub/taskhub-api/internal/services"
	"github.com/taskhub/taskhub-api/internal/sse"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Shared infrastructure
	hub := sse.NewHub()
	mailer := services.NewLogMailer(cfg.MailFrom)

	// Services
	notificationService := services.NewNotificationService(notificationRepo, hub, mailer)
	authService := services.NewAuthService(userRepo, sessionRepo, mailer, cfg)
	userService := services.NewUserService(userRepo, mailer, cfg)
	taskService := services.NewTaskService(taskRepo, userRepo, notificationService)

	// Reminder scheduler
	thresholds, err := cfg.ReminderThresholds()
	if err != nil {
		log.Fatalf("Failed to parse reminder thresholds: %v", err)
	}
	reminders := scheduler.NewReminderScheduler(
		taskRepo,
		notificationRepo,
		sessionRepo,
		notificationService,
		cfg.ReminderInterval(),
		thresholds,
		time.Duration(cfg.RetentionDays)*24*time.Hour,
	)
	reminders.Start(context.Background())

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	streamHandler := handlers.NewStreamHandler(authService, notificationService, hub, cfg.SSEHeartbeat())

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "TaskHub API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.POST("/set-password", authHandler.SetPassword)
			auth.POST("/resend-verification", authHandler.ResendVerification)
			auth.POST("/logout", middleware.RequireAuth(authService), authHandler.Logout)
			auth.POST("/revoke-session/:userId", middleware.RequireAuth(authService), authHandler.RevokeSessions)
			auth.GET("/me", middleware.RequireAuth(authService), authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(authService))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), taskHandler.DeleteTask)
		}

		// User routes (protected, admin-facing)
		users := api.Group("/users")
		users.Use(middleware.RequireAuth(authService))
		{
			users.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), userHandler.ListUsers)
			users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.CreateUser)
			users.GET("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.GetUser)
			users.PUT("/:id/role", middleware.RequireRoles(models.RoleAdmin), userHandler.UpdateUserRole)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			// The stream authenticates via query token: EventSource cannot
			// set an Authorization header.
			notifications.GET("/stream", streamHandler.Stream)

			protected := notifications.Group("")
			protected.Use(middleware.RequireAuth(authService))
			{
				protected.GET("", notificationHandler.ListNotifications)
				protected.GET("/unread/count", notificationHandler.UnreadCount)
				protected.PUT("/read/all", notificationHandler.MarkAllRead)
				protected.PUT("/:id/read", notificationHandler.MarkRead)
				protected.DELETE("/:id", notificationHandler.DeleteNotification)
				protected.DELETE("", notificationHandler.DeleteAll)
			}
		}
	}

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
