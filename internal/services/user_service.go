package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskhub/taskhub-api/internal/auth"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService owns the admin-facing user management operations.
type UserService struct {
	userRepo repository.UserRepository
	mailer   Mailer
	cfg      *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, mailer Mailer, cfg *config.Config) *UserService {
	return &UserService{
		userRepo: userRepo,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// CreateUserInput represents an admin-provisioned account.
type CreateUserInput struct {
	Username string
	Email    string
	Role     models.Role
}

// CreateUser provisions an account on behalf of an admin. The email is
// auto-verified, a generated one-time password is delivered by email, and a
// live setup token lets the user pick their own password.
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	tempPassword, err := auth.NewTemporaryPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	token, err := auth.NewVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	expiry := time.Now().Add(s.cfg.VerificationTTL())

	user := &models.User{
		Username:              username,
		Email:                 input.Email,
		PasswordHash:          string(hashedPassword),
		Role:                  role,
		EmailVerified:         true,
		VerificationToken:     &token,
		VerificationExpiry:    &expiry,
		AdminProvisioned:      true,
		RequiresPasswordSetup: true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	sendAsync(s.mailer, user.Email, "Your TaskHub account",
		fmt.Sprintf("Hi %s, an account was created for you. Temporary password: %s. Set your own password with the token %s.",
			user.Username, tempPassword, token))

	return user, nil
}

// ListUsers retrieves users with pagination.
func (s *UserService) ListUsers(page, pageSize int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateRole changes a user's role.
func (s *UserService) UpdateRole(id uint64, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Role = role
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
