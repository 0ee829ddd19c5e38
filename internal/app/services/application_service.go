package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/helpers"
	"github.com/yigit/jobportal/internal/pkg/metrics"
	"github.com/yigit/jobportal/internal/pkg/validation"
)

// ApplyInput is an application form after the documents have been chosen or uploaded
type ApplyInput struct {
	CVDocumentID          int64
	CoverLetterDocumentID int64
	Notes                 string
}

// ApplicationService manages applications and their review
type ApplicationService struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(repos *repositories.Repositories, logger zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		repos:  repos,
		logger: logger,
	}
}

// ownedDocument loads a document and checks it belongs to userID and has the expected type
func (s *ApplicationService) ownedDocument(ctx context.Context, documentID, userID int64, docType models.DocumentType) error {
	if documentID <= 0 {
		return apperrors.NewCustomError(apperrors.ErrDocumentRequired, "Select or upload a "+docType.Label())
	}
	doc, err := s.repos.DocumentRepository.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UserID != userID || doc.Type != docType {
		return apperrors.ErrDocumentNotFound
	}
	return nil
}

// Apply submits an application. A second application to the same position
// returns ErrAlreadyApplied, whether caught up front or by the unique
// constraint when two requests race.
func (s *ApplicationService) Apply(ctx context.Context, actor *appauth.Principal, positionID int64, in ApplyInput) (*models.Application, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if !actor.IsStudent() && !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("Only students can apply for positions")
	}

	if _, err := s.repos.PositionRepository.FindByID(ctx, positionID); err != nil {
		return nil, err
	}

	applied, err := s.repos.ApplicationRepository.HasApplied(ctx, positionID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if applied {
		metrics.ApplicationsTotal.WithLabelValues("duplicate").Inc()
		return nil, apperrors.ErrAlreadyApplied
	}

	if err := s.ownedDocument(ctx, in.CVDocumentID, actor.UserID, models.DocumentTypeCV); err != nil {
		return nil, err
	}
	if err := s.ownedDocument(ctx, in.CoverLetterDocumentID, actor.UserID, models.DocumentTypeCoverLetter); err != nil {
		return nil, err
	}

	cvID, coverID := in.CVDocumentID, in.CoverLetterDocumentID
	application := &models.Application{
		PositionID:            positionID,
		UserID:                actor.UserID,
		CVDocumentID:          &cvID,
		CoverLetterDocumentID: &coverID,
		Status:                models.StatusPending,
		Notes:                 helpers.OptionalString(validation.SanitizeNotes(in.Notes)),
	}
	if err := s.repos.ApplicationRepository.Create(ctx, application); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyApplied) {
			metrics.ApplicationsTotal.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	metrics.ApplicationsTotal.WithLabelValues("created").Inc()
	s.logger.Info().Int64("applicationID", application.ID).Int64("positionID", positionID).Int64("userID", actor.UserID).Msg("Application submitted")
	return application, nil
}

// HasApplied reports whether the user already applied to the position
func (s *ApplicationService) HasApplied(ctx context.Context, positionID, userID int64) (bool, error) {
	return s.repos.ApplicationRepository.HasApplied(ctx, positionID, userID)
}

// UpdateStatus sets the review status of an application to a position the
// caller manages. Unknown statuses are rejected before any query runs.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor *appauth.Principal, positionID, applicationID int64, status models.ApplicationStatus, notes string) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	if !status.IsValid() {
		return apperrors.ErrInvalidStatus
	}

	application, err := s.repos.ApplicationRepository.FindByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if positionID > 0 && application.PositionID != positionID {
		return apperrors.ErrApplicationNotFound
	}

	position := &models.Position{ID: application.PositionID, CreatorID: application.PositionCreatorID}
	if err := appauth.ValidatePositionOwnership(actor, position); err != nil {
		return err
	}

	if err := s.repos.ApplicationRepository.UpdateStatus(ctx, applicationID, status, helpers.OptionalString(validation.SanitizeNotes(notes))); err != nil {
		return err
	}
	s.logger.Info().Int64("applicationID", applicationID).Str("status", string(status)).Int64("userID", actor.UserID).Msg("Application status updated")
	return nil
}

// Withdraw deletes the caller's own application; admins may withdraw any
func (s *ApplicationService) Withdraw(ctx context.Context, actor *appauth.Principal, applicationID int64) error {
	application, err := s.repos.ApplicationRepository.FindByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if !appauth.CanWithdrawApplication(actor, &application.Application) {
		return apperrors.NewForbiddenError("You can only withdraw your own applications")
	}

	if err := s.repos.ApplicationRepository.Delete(ctx, applicationID); err != nil {
		return err
	}
	s.logger.Info().Int64("applicationID", applicationID).Int64("userID", actor.UserID).Msg("Application withdrawn")
	return nil
}

// AdminDelete removes any application
func (s *ApplicationService) AdminDelete(ctx context.Context, actor *appauth.Principal, applicationID int64) error {
	if !actor.IsAdmin() {
		return apperrors.ErrPermissionDenied
	}
	if err := s.repos.ApplicationRepository.Delete(ctx, applicationID); err != nil {
		return err
	}
	s.logger.Info().Int64("applicationID", applicationID).Int64("adminID", actor.UserID).Msg("Application deleted by admin")
	return nil
}

// ListByPosition lists the applicants of a position the caller manages
func (s *ApplicationService) ListByPosition(ctx context.Context, actor *appauth.Principal, positionID int64) (*models.PositionListing, []*models.ApplicationDetail, error) {
	position, err := s.repos.PositionRepository.FindByID(ctx, positionID)
	if err != nil {
		return nil, nil, err
	}
	if err := appauth.ValidatePositionOwnership(actor, &position.Position); err != nil {
		return nil, nil, err
	}

	applications, err := s.repos.ApplicationRepository.ListByPosition(ctx, positionID)
	if err != nil {
		return nil, nil, err
	}
	return position, applications, nil
}

// ListByUser lists a user's applications with position details
func (s *ApplicationService) ListByUser(ctx context.Context, userID int64) ([]*models.ApplicationDetail, error) {
	return s.repos.ApplicationRepository.ListByUser(ctx, userID)
}

// ListAll returns a page of every application (admin only)
func (s *ApplicationService) ListAll(ctx context.Context, actor *appauth.Principal, page, size int) ([]*models.ApplicationDetail, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.ErrPermissionDenied
	}
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.repos.ApplicationRepository.ListAll(ctx, offset, limit)
}
