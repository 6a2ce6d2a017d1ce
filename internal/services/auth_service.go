package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/taskhub/taskhub-api/internal/auth"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/constants"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidUsername          = errors.New("username must be 3-30 characters of letters, digits or underscore")
	ErrUsernameTaken            = errors.New("username already exists")
	ErrEmailTaken               = errors.New("email already exists")
	ErrPasswordTooShort         = errors.New("password too short")
	ErrInvalidRole              = errors.New("invalid role")
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrEmailNotVerified         = errors.New("email address not verified")
	ErrUnauthenticated          = errors.New("invalid or expired token")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrUserNotFound             = errors.New("user not found")
	ErrNotAllowed               = errors.New("operation not permitted")
	ErrFailedToHashPassword     = errors.New("failed to hash password")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// AuthService owns authentication, the session ledger and the registration
// state machine.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	mailer      Mailer
	cfg         *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, mailer Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		mailer:      mailer,
		cfg:         cfg,
	}
}

// RegisterInput represents the required information to create a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// Register creates a self-registered, unverified user and fires off the
// verification email. A failed send does not fail registration.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.ensureIdentityFree(username, input.Email); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	token, err := auth.NewVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	expiry := time.Now().Add(s.cfg.VerificationTTL())

	user := &models.User{
		Username:           username,
		Email:              input.Email,
		PasswordHash:       string(hashedPassword),
		Role:               role,
		EmailVerified:      false,
		VerificationToken:  &token,
		VerificationExpiry: &expiry,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	sendAsync(s.mailer, user.Email, "Verify your email",
		fmt.Sprintf("Welcome %s! Confirm your email address with the token %s.", user.Username, token))

	return user, nil
}

// Login verifies credentials, mints a signed token and records the session.
func (s *AuthService) Login(username, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.CanLogin() {
		return "", nil, ErrEmailNotVerified
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.TokenTTL(), user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to mint token: %w", err)
	}

	session := &models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.cfg.TokenTTL()),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	return token, user, nil
}

// Logout revokes the session for a token. Revoking an unknown token is fine.
func (s *AuthService) Logout(token string) error {
	if err := s.sessionRepo.DeleteByToken(token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to an identity. The token must carry
// a valid signature AND a live session row; deleting the row revokes the
// token regardless of its signature.
func (s *AuthService) Authenticate(token string) (auth.Identity, error) {
	if _, err := auth.ParseToken(s.cfg.JWTSecret, token); err != nil {
		return auth.Identity{}, ErrUnauthenticated
	}

	session, err := s.sessionRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, ErrUnauthenticated
		}
		return auth.Identity{}, fmt.Errorf("failed to find session: %w", err)
	}
	if session.Expired(time.Now()) {
		return auth.Identity{}, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, ErrUnauthenticated
		}
		return auth.Identity{}, fmt.Errorf("failed to find user: %w", err)
	}

	return auth.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

// RevokeAllSessions deletes every session of the target user. Admins may
// revoke anyone; everyone else only themselves.
func (s *AuthService) RevokeAllSessions(identity auth.Identity, targetUserID uint64) error {
	if !auth.CanRevokeSessions(identity, targetUserID) {
		return ErrNotAllowed
	}
	if err := s.sessionRepo.DeleteByUserID(targetUserID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

// VerifyEmail flips the account to verified. For admin-provisioned accounts
// the token stays live so the password-setup step can consume it; the
// returned flag tells the caller to proceed to SetPassword.
func (s *AuthService) VerifyEmail(token string) (bool, error) {
	user, err := s.userRepo.FindByVerificationToken(token, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrInvalidVerificationToken
		}
		return false, fmt.Errorf("failed to find user: %w", err)
	}

	user.EmailVerified = true
	if !user.RequiresPasswordSetup {
		user.VerificationToken = nil
		user.VerificationExpiry = nil
	}

	if err := s.userRepo.Update(user); err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}

	if !user.RequiresPasswordSetup {
		sendAsync(s.mailer, user.Email, "Welcome to TaskHub",
			fmt.Sprintf("Hi %s, your email is verified and your account is ready.", user.Username))
	}

	return user.RequiresPasswordSetup, nil
}

// SetPassword completes provisioning of an admin-created account: it
// replaces the one-time password and consumes the setup token.
func (s *AuthService) SetPassword(token, newPassword string) error {
	user, err := s.userRepo.FindByVerificationToken(token, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !user.RequiresPasswordSetup || !user.EmailVerified {
		return ErrInvalidVerificationToken
	}

	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = string(hashedPassword)
	user.VerificationToken = nil
	user.VerificationExpiry = nil
	user.RequiresPasswordSetup = false

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	sendAsync(s.mailer, user.Email, "Welcome to TaskHub",
		fmt.Sprintf("Hi %s, your password is set and your account is ready.", user.Username))

	return nil
}

// ResendVerification re-issues the verification token. The outcome is
// deliberately identical whether or not the email exists, to prevent
// account enumeration.
func (s *AuthService) ResendVerification(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	token, err := auth.NewVerificationToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}
	expiry := time.Now().Add(s.cfg.VerificationTTL())
	user.VerificationToken = &token
	user.VerificationExpiry = &expiry

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	// Awaited on purpose: this is the one send whose outcome matters to the
	// caller, even though the response stays generic.
	if err := s.mailer.Send(user.Email, "Verify your email",
		fmt.Sprintf("Hi %s, confirm your email address with the token %s.", user.Username, token)); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ensureIdentityFree rejects a username or email that is already taken.
func (s *AuthService) ensureIdentityFree(username, email string) error {
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	return nil
}
