package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/auth"
	"github.com/yigit/jobportal/internal/pkg/email"
	"github.com/yigit/jobportal/internal/pkg/helpers"
	"github.com/yigit/jobportal/internal/pkg/metrics"
	"github.com/yigit/jobportal/internal/pkg/validation"
)

// AuthConfig holds the credential lifecycle settings
type AuthConfig struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	ResetTokenTTL    time.Duration
	ResetMinResponse time.Duration
	BaseURL          string
}

// DefaultAuthConfig returns the lockout and reset defaults
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		LockoutThreshold: 3,
		LockoutDuration:  60 * time.Minute,
		ResetTokenTTL:    time.Hour,
		ResetMinResponse: 400 * time.Millisecond,
		BaseURL:          "http://localhost:8080",
	}
}

// dummyHash is compared against when the login identifier is unknown so both
// branches pay for one bcrypt comparison.
var (
	dummyHash     string
	dummyHashOnce sync.Once
)

func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("not-a-real-password-00")
	})
	auth.CheckPassword(dummyHash, password)
}

// AuthService handles registration, authentication and password resets
type AuthService struct {
	repos        *repositories.Repositories
	tx           Transactor
	emailService email.EmailService
	config       AuthConfig
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repos *repositories.Repositories,
	tx Transactor,
	emailService email.EmailService,
	config AuthConfig,
	logger zerolog.Logger,
) *AuthService {
	if config.LockoutThreshold < 1 {
		config.LockoutThreshold = DefaultAuthConfig().LockoutThreshold
	}
	return &AuthService{
		repos:        repos,
		tx:           tx,
		emailService: emailService,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// validateRegistration checks every field and returns all problems at once
func validateRegistration(req *dto.RegisterRequest) map[string]string {
	fields := make(map[string]string)

	username := validation.NormalizeUsername(req.Username)
	if username == "" {
		fields["username"] = "Username is required"
	} else if !validation.ValidUsername(username) {
		fields["username"] = "Username may only contain letters, digits, underscores and hyphens"
	}

	if !validation.IsEmail(validation.NormalizeEmail(req.Email)) {
		fields["email"] = "Enter a valid email address"
	}

	if problems := validation.PasswordProblems(req.Password); len(problems) > 0 {
		fields["password"] = "Password " + strings.Join(problems, ", ")
	} else if req.PasswordConfirm != "" && req.PasswordConfirm != req.Password {
		fields["password_confirm"] = "Passwords do not match"
	}

	if phone := strings.TrimSpace(req.Phone); phone != "" && !validation.ValidPhone(phone) {
		fields["phone"] = "Phone number must be exactly 8 digits"
	}

	if !validation.NewStringValidation(req.FullName).WithRequired(false).WithMaxLength(validation.NameMaxLength).Validate() {
		fields["full_name"] = "Full name is too long"
	}
	return fields
}

// Register creates a student account
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	if fields := validateRegistration(req); len(fields) > 0 {
		return nil, apperrors.NewValidationError("Registration failed", fields)
	}

	username := validation.NormalizeUsername(req.Username)
	emailAddr := validation.NormalizeEmail(req.Email)

	taken, err := s.repos.UserRepository.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if taken {
		return nil, apperrors.ErrUsernameTaken
	}

	exists, err := s.repos.UserRepository.EmailExists(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        emailAddr,
		PasswordHash: hash,
		FullName:     helpers.OptionalString(req.FullName),
		Phone:        helpers.OptionalString(req.Phone),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	// The unique constraints still catch a concurrent registration.
	if err := s.repos.UserRepository.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// lookupIdentifier treats the identifier as an email when it parses as one
func (s *AuthService) lookupIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if validation.IsEmail(identifier) {
		return s.repos.UserRepository.GetByEmail(ctx, validation.NormalizeEmail(identifier))
	}
	return s.repos.UserRepository.GetByUsername(ctx, validation.NormalizeUsername(identifier))
}

// Authenticate verifies credentials and drives the lockout state machine.
// Reaching the failure threshold locks the account for LockoutDuration; while
// locked every attempt fails with ErrAccountLocked, whatever the password.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.lookupIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			compareDummy(password)
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	now := s.now()
	if user.IsLocked(now) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		s.logger.Warn().Int64("userID", user.ID).Time("lockoutUntil", *user.LockoutUntil).Msg("Login attempt on locked account")
		return nil, apperrors.ErrAccountLocked
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, s.recordFailure(ctx, user, now)
	}

	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.ErrAccountDisabled
	}

	if user.FailedAttempts > 0 || user.LockoutUntil != nil {
		if err := s.repos.UserRepository.ResetLoginState(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("error resetting login state: %w", err)
		}
		user.FailedAttempts = 0
		user.LockoutUntil = nil
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Int64("userID", user.ID).Msg("User logged in")
	return user, nil
}

func (s *AuthService) recordFailure(ctx context.Context, user *models.User, now time.Time) error {
	attempts, err := s.repos.UserRepository.IncrementFailedAttempts(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("error recording failed login: %w", err)
	}

	if attempts < s.config.LockoutThreshold {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		s.logger.Info().Int64("userID", user.ID).Int("failedAttempts", attempts).Msg("Failed login")
		return apperrors.ErrInvalidCredentials
	}

	until := now.Add(s.config.LockoutDuration)
	if err := s.repos.UserRepository.LockAccount(ctx, user.ID, until); err != nil {
		return fmt.Errorf("error locking account: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues("locked").Inc()
	metrics.AccountLockoutsTotal.Inc()
	s.logger.Warn().Int64("userID", user.ID).Time("lockoutUntil", until).Msg("Account locked after repeated failed logins")
	return apperrors.ErrAccountLocked
}

// RequestPasswordReset issues a reset link when the email is registered. The
// outcome is identical either way, and the call never returns before
// ResetMinResponse has elapsed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	defer helpers.SleepUntil(ctx, time.Now().Add(s.config.ResetMinResponse))
	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()

	user, err := s.repos.UserRepository.GetByEmail(ctx, validation.NormalizeEmail(emailAddr))
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("Error looking up user for password reset")
		}
		return nil
	}

	token, digest, err := auth.GenerateResetToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("Error generating password reset token")
		return nil
	}

	expiresAt := s.now().Add(s.config.ResetTokenTTL)
	if err := s.repos.UserRepository.SetResetToken(ctx, user.ID, digest, expiresAt); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Error storing password reset token")
		return nil
	}

	link := strings.TrimRight(s.config.BaseURL, "/") + "/password/reset?token=" + url.QueryEscape(token)
	if err := s.emailService.SendPasswordResetEmail(user.Email, user.Username, link); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Error sending password reset email")
		return nil
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Password reset requested")
	return nil
}

// resolveResetToken finds the holder of a reset token and checks its expiry.
// An expired token is cleared from the user row.
func (s *AuthService) resolveResetToken(ctx context.Context, users *repositories.UserRepository, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.ErrInvalidPasswordResetToken
	}

	user, err := users.GetByResetToken(ctx, auth.HashResetToken(token))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPasswordResetToken
		}
		return nil, fmt.Errorf("error loading reset token: %w", err)
	}

	if user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(s.now()) {
		if err := users.ClearResetToken(ctx, user.ID); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to clear expired reset token")
		}
		return nil, apperrors.ErrInvalidPasswordResetToken
	}
	return user, nil
}

// ValidateResetToken reports whether a reset token is currently usable
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.resolveResetToken(ctx, s.repos.UserRepository, token)
	return err
}

// ConfirmPasswordReset sets a new password through a valid token. The token
// is consumed and any lockout is cleared.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if problems := validation.PasswordProblems(newPassword); len(problems) > 0 {
		return apperrors.NewValidationError("Password reset failed", map[string]string{
			"password": "Password " + strings.Join(problems, ", "),
		})
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	var userID int64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.repos.UserRepository.WithTx(tx)
		user, err := s.resolveResetToken(ctx, users, token)
		if err != nil {
			return err
		}
		userID = user.ID
		return users.UpdatePassword(ctx, user.ID, hash)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidPasswordResetToken) {
			metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	s.logger.Info().Int64("userID", userID).Msg("Password reset completed")
	return nil
}
