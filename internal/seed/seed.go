package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/jobportal/internal/app/models"
	appRepos "github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/auth"
	"github.com/yigit/jobportal/internal/pkg/validation"
)

// AdminAccount is the account created on an empty installation
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// CreateDefaultData creates an admin account when no admin exists yet.
// An empty password disables seeding.
func CreateDefaultData(ctx context.Context, users *appRepos.UserRepository, admin AdminAccount, lgr zerolog.Logger) error {
	if admin.Password == "" {
		lgr.Info().Msg("No seed admin password configured, skipping default admin")
		return nil
	}

	admins, err := users.CountByRole(ctx, appModels.RoleAdmin)
	if err != nil {
		return fmt.Errorf("error counting admins: %w", err)
	}
	if admins > 0 {
		lgr.Debug().Int64("admins", admins).Msg("Admin account exists, nothing to seed")
		return nil
	}

	if problems := validation.PasswordProblems(admin.Password); len(problems) > 0 {
		lgr.Warn().Strs("problems", problems).Msg("Seed admin password does not meet the password policy")
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("error hashing seed admin password: %w", err)
	}

	user := &appModels.User{
		Username:     validation.NormalizeUsername(admin.Username),
		Email:        validation.NormalizeEmail(admin.Email),
		PasswordHash: hash,
		Role:         appModels.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrUsernameTaken, apperrors.ErrEmailAlreadyExists) {
			lgr.Warn().Str("username", user.Username).Msg("Seed admin username or email already in use by a non-admin account")
			return nil
		}
		return errors.Join(errors.New("error creating default admin"), err)
	}

	lgr.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("Default admin account created")
	return nil
}
