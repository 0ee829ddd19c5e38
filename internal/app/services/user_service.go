package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/helpers"
	"github.com/yigit/jobportal/internal/pkg/validation"
)

// UserService handles profile changes, role changes and account deletion
type UserService struct {
	repos     *repositories.Repositories
	tx        Transactor
	documents DocumentService
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	repos *repositories.Repositories,
	tx Transactor,
	documents DocumentService,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		repos:     repos,
		tx:        tx,
		documents: documents,
		logger:    logger,
	}
}

// GetByID returns a user
func (s *UserService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return s.repos.UserRepository.GetByID(ctx, userID)
}

// List returns a page of users with the total count
func (s *UserService) List(ctx context.Context, actor *appauth.Principal, page, size int) ([]*models.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.ErrPermissionDenied
	}
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.repos.UserRepository.List(ctx, offset, limit)
}

// UpdateProfile sets the caller's optional full name and phone
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) error {
	fields := make(map[string]string)
	phone := strings.TrimSpace(req.Phone)
	if phone != "" && !validation.ValidPhone(phone) {
		fields["phone"] = "Phone number must be exactly 8 digits"
	}
	if !validation.NewStringValidation(req.FullName).WithRequired(false).WithMaxLength(validation.NameMaxLength).Validate() {
		fields["full_name"] = "Full name is too long"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("Profile update failed", fields)
	}

	if err := s.repos.UserRepository.UpdateProfile(ctx, userID, helpers.OptionalString(req.FullName), helpers.OptionalString(phone)); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", userID).Msg("Profile updated")
	return nil
}

// UpdateRole changes another user's role. Leaving the student role deletes
// the user's applications and documents. Leaving the employee or admin role
// deletes the positions the user created, including a move between the two.
func (s *UserService) UpdateRole(ctx context.Context, actor *appauth.Principal, targetID int64, newRole models.RoleType) error {
	if !actor.IsAdmin() {
		return apperrors.ErrPermissionDenied
	}
	if !appauth.CanChangeRole(actor, targetID) {
		return apperrors.ErrSelfRoleChange
	}
	if !newRole.IsValid() {
		return apperrors.ErrInvalidRole
	}

	var (
		oldRole      models.RoleType
		removedFiles []string
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		target, err := repos.UserRepository.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		oldRole = target.Role
		if oldRole == newRole {
			return apperrors.ErrNoChanges
		}

		if oldRole == models.RoleStudent {
			if _, err := repos.ApplicationRepository.DeleteByUser(ctx, targetID); err != nil {
				return err
			}
			removedFiles, err = deleteDocumentRows(ctx, repos, targetID)
			if err != nil {
				return err
			}
		}
		if oldRole.CanManagePositions() {
			if _, err := repos.PositionRepository.DeleteByCreator(ctx, targetID); err != nil {
				return err
			}
		}

		return repos.UserRepository.UpdateRole(ctx, targetID, newRole)
	})
	if err != nil {
		return err
	}

	if len(removedFiles) > 0 {
		s.documents.RemoveFiles(targetID, removedFiles, true)
	}

	s.logger.Info().
		Int64("actorID", actor.UserID).
		Int64("userID", targetID).
		Str("from", string(oldRole)).
		Str("to", string(newRole)).
		Msg("User role changed")
	return nil
}

// AdminDelete deletes another user's account
func (s *UserService) AdminDelete(ctx context.Context, actor *appauth.Principal, targetID int64) error {
	if !actor.IsAdmin() {
		return apperrors.ErrPermissionDenied
	}
	if !appauth.CanAdminDelete(actor, targetID) {
		return apperrors.ErrSelfDelete
	}
	return s.deleteUser(ctx, targetID)
}

// DeleteSelf deletes the caller's own account
func (s *UserService) DeleteSelf(ctx context.Context, actor *appauth.Principal) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	return s.deleteUser(ctx, actor.UserID)
}

// deleteUser removes the user row (positions, applications and documents
// follow by cascade) and then the stored files and upload directory.
func (s *UserService) deleteUser(ctx context.Context, userID int64) error {
	var paths []string
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		var err error
		paths, err = deleteDocumentRows(ctx, repos, userID)
		if err != nil {
			return err
		}
		return repos.UserRepository.Delete(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.documents.RemoveFiles(userID, paths, true)
	s.logger.Info().Int64("userID", userID).Int("files", len(paths)).Msg("User deleted")
	return nil
}
