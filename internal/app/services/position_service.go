package services

import (
	"context"
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

// PositionService manages job postings
type PositionService struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
}

// NewPositionService creates a new PositionService
func NewPositionService(repos *repositories.Repositories, logger zerolog.Logger) *PositionService {
	return &PositionService{
		repos:  repos,
		logger: logger,
	}
}

// positionInput is a validated, trimmed PositionRequest
type positionInput struct {
	title       string
	department  string
	location    string
	amount      int
	description *string
	resourceURL *string
}

func validatePosition(req *dto.PositionRequest) (*positionInput, error) {
	in := &positionInput{
		title:       strings.TrimSpace(req.Title),
		department:  strings.TrimSpace(req.Department),
		location:    strings.TrimSpace(req.Location),
		amount:      req.Amount,
		description: helpers.OptionalString(req.Description),
		resourceURL: helpers.OptionalString(req.ResourceURL),
	}

	fields := make(map[string]string)
	required := map[string]string{
		"title":      in.title,
		"department": in.department,
		"location":   in.location,
	}
	for name, value := range required {
		if !validation.NewStringValidation(value).WithMaxLength(validation.PositionFieldMaxLen).Validate() {
			fields[name] = "This field is required and must be at most 255 characters"
		}
	}
	if !validation.NewNumericValidation(in.amount).Between(validation.PositionAmountMin, validation.PositionAmountMax).Validate() {
		fields["amount"] = "Amount must be between 1 and 25"
	}
	if in.description != nil && !validation.NewStringValidation(*in.description).WithMaxLength(validation.DescriptionMaxLength).Validate() {
		fields["description"] = "Description is too long"
	}
	if in.resourceURL != nil && !validation.ValidURL(*in.resourceURL) {
		fields["resource_url"] = "Enter a valid URL"
	}

	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Position is invalid", fields)
	}
	return in, nil
}

// Create publishes a new position owned by the caller
func (s *PositionService) Create(ctx context.Context, actor *appauth.Principal, req *dto.PositionRequest) (*models.Position, error) {
	if !actor.CanManagePositions() {
		return nil, apperrors.NewForbiddenError("Only employees and admins can create positions")
	}

	in, err := validatePosition(req)
	if err != nil {
		return nil, err
	}

	position := &models.Position{
		CreatorID:   actor.UserID,
		Title:       in.title,
		Department:  in.department,
		Location:    in.location,
		Amount:      in.amount,
		Description: in.description,
		ResourceURL: in.resourceURL,
	}
	if err := s.repos.PositionRepository.Create(ctx, position); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("positionID", position.ID).Int64("creatorID", actor.UserID).Msg("Position created")
	return position, nil
}

// Update edits a position the caller may manage. Submitting the stored values
// returns ErrNoChanges without writing.
func (s *PositionService) Update(ctx context.Context, actor *appauth.Principal, positionID int64, req *dto.PositionRequest) error {
	current, err := s.repos.PositionRepository.FindByID(ctx, positionID)
	if err != nil {
		return err
	}
	if err := appauth.ValidatePositionOwnership(actor, &current.Position); err != nil {
		return err
	}

	in, err := validatePosition(req)
	if err != nil {
		return err
	}

	if current.Title == in.title &&
		current.Department == in.department &&
		current.Location == in.location &&
		current.Amount == in.amount &&
		helpers.Deref(current.Description) == helpers.Deref(in.description) &&
		helpers.Deref(current.ResourceURL) == helpers.Deref(in.resourceURL) {
		return apperrors.ErrNoChanges
	}

	updated := current.Position
	updated.Title = in.title
	updated.Department = in.department
	updated.Location = in.location
	updated.Amount = in.amount
	updated.Description = in.description
	updated.ResourceURL = in.resourceURL

	if err := s.repos.PositionRepository.Update(ctx, &updated); err != nil {
		return err
	}
	s.logger.Info().Int64("positionID", positionID).Int64("userID", actor.UserID).Msg("Position updated")
	return nil
}

// Delete removes a position; its applications go with it by cascade
func (s *PositionService) Delete(ctx context.Context, actor *appauth.Principal, positionID int64) error {
	current, err := s.repos.PositionRepository.FindByID(ctx, positionID)
	if err != nil {
		return err
	}
	if err := appauth.ValidatePositionOwnership(actor, &current.Position); err != nil {
		return err
	}

	if err := s.repos.PositionRepository.Delete(ctx, positionID); err != nil {
		return err
	}
	s.logger.Info().
		Int64("positionID", positionID).
		Int64("userID", actor.UserID).
		Int64("applications", current.ApplicationCount).
		Msg("Position deleted")
	return nil
}

// ListAll returns a page of positions, newest first
func (s *PositionService) ListAll(ctx context.Context, page, size int) ([]*models.PositionListing, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.repos.PositionRepository.ListAll(ctx, offset, limit)
}

// FindByID returns a single position with creator and application count
func (s *PositionService) FindByID(ctx context.Context, positionID int64) (*models.PositionListing, error) {
	return s.repos.PositionRepository.FindByID(ctx, positionID)
}

// FindByCreator lists the positions a user created
func (s *PositionService) FindByCreator(ctx context.Context, creatorID int64) ([]*models.PositionListing, error) {
	return s.repos.PositionRepository.FindByCreator(ctx, creatorID)
}

// Count returns the number of published positions
func (s *PositionService) Count(ctx context.Context) (int64, error) {
	return s.repos.PositionRepository.Count(ctx)
}
