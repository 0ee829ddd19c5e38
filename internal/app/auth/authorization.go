package auth

import (
	"context"
	"fmt"

	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/logger"
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID   int64
	Username string
	Role     models.RoleType
}

// IsAdmin reports whether the caller is an admin
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// IsStudent reports whether the caller is a student
func (p *Principal) IsStudent() bool {
	return p != nil && p.Role == models.RoleStudent
}

// CanManagePositions reports whether the caller may create positions
func (p *Principal) CanManagePositions() bool {
	return p != nil && p.Role.CanManagePositions()
}

type principalKey struct{}

// WithPrincipal stores the caller in ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored in ctx, if any
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// RequirePrincipal returns the caller or ErrUnauthenticated
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	return p, nil
}

// CanManagePosition: admins manage every position, employees only their own.
func CanManagePosition(p *Principal, position *models.Position) bool {
	if p == nil || position == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	return p.CanManagePositions() && position.CreatorID == p.UserID
}

// CanWithdrawApplication: the applicant or an admin.
func CanWithdrawApplication(p *Principal, application *models.Application) bool {
	if p == nil || application == nil {
		return false
	}
	return p.IsAdmin() || application.UserID == p.UserID
}

// CanChangeRole: admins, for anyone but themselves.
func CanChangeRole(p *Principal, targetUserID int64) bool {
	return p.IsAdmin() && p.UserID != targetUserID
}

// CanAdminDelete: admins, for anyone but themselves. Self-deletion goes
// through the profile path.
func CanAdminDelete(p *Principal, targetUserID int64) bool {
	return p.IsAdmin() && p.UserID != targetUserID
}

// DocumentAttachmentChecker reports whether a document was sent in an
// application to one of the creator's positions
type DocumentAttachmentChecker interface {
	IsAttachedToPositionOf(ctx context.Context, documentID, creatorID int64) (bool, error)
}

// AuthorizationService evaluates the rules that need a database lookup
type AuthorizationService struct {
	documents DocumentAttachmentChecker
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(documents DocumentAttachmentChecker) *AuthorizationService {
	return &AuthorizationService{documents: documents}
}

// CanAccessDocument grants access to the owner, any admin, and the creator of
// a position the document was attached to through an application.
func (s *AuthorizationService) CanAccessDocument(ctx context.Context, p *Principal, doc *models.Document) (bool, error) {
	if p == nil || doc == nil {
		return false, nil
	}
	if doc.UserID == p.UserID || p.IsAdmin() {
		return true, nil
	}
	if !p.CanManagePositions() {
		return false, nil
	}

	attached, err := s.documents.IsAttachedToPositionOf(ctx, doc.ID, p.UserID)
	if err != nil {
		logger.Error().Err(err).Int64("documentID", doc.ID).Int64("userID", p.UserID).Msg("Error checking document attachment")
		return false, fmt.Errorf("failed to check document access: %w", err)
	}
	return attached, nil
}

// ValidatePositionOwnership returns a forbidden error unless p may manage the position
func ValidatePositionOwnership(p *Principal, position *models.Position) error {
	if !CanManagePosition(p, position) {
		return apperrors.NewForbiddenError("You can only manage positions you created")
	}
	return nil
}
