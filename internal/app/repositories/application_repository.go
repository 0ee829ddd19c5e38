package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/db"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/dberrors"
	"github.com/yigit/jobportal/internal/pkg/helpers"
	"github.com/yigit/jobportal/internal/pkg/logger"
)

const constraintApplicationsPositionUser = "uq_applications_position_user"

var applicationColumns = []string{
	"a.id", "a.position_id", "a.user_id", "a.cv_document_id", "a.cover_letter_document_id",
	"a.status", "a.notes", "a.application_date",
}

// ApplicationRepository handles database operations for applications
type ApplicationRepository struct {
	base
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(q db.Querier, dialect db.Dialect) *ApplicationRepository {
	return &ApplicationRepository{base: newBase(q, dialect)}
}

// WithTx returns a copy of the repository that runs inside tx
func (r *ApplicationRepository) WithTx(tx *sql.Tx) *ApplicationRepository {
	return &ApplicationRepository{base: r.withTx(tx)}
}

// applicationScan collects the nullable columns of an application row
type applicationScan struct {
	cvID, coverLetterID sql.NullInt64
	notes               sql.NullString
}

func (s *applicationScan) targets(a *models.Application) []any {
	return []any{
		&a.ID, &a.PositionID, &a.UserID, &s.cvID, &s.coverLetterID,
		&a.Status, &s.notes, &a.ApplicationDate,
	}
}

func (s *applicationScan) apply(a *models.Application) {
	a.CVDocumentID = helpers.NullInt64Ptr(s.cvID)
	a.CoverLetterDocumentID = helpers.NullInt64Ptr(s.coverLetterID)
	a.Notes = helpers.StringPtr(s.notes)
}

// Create inserts an application. A second application for the same
// (position, user) pair yields ErrAlreadyApplied.
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	a.ApplicationDate = time.Now().UTC()

	query, args, err := r.sb.Insert("applications").
		Columns("position_id", "user_id", "cv_document_id", "cover_letter_document_id", "status", "notes", "application_date").
		Values(a.PositionID, a.UserID,
			helpers.NullableInt64(a.CVDocumentID), helpers.NullableInt64(a.CoverLetterDocumentID),
			string(a.Status), helpers.NullableString(a.Notes), a.ApplicationDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create application query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&a.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintApplicationsPositionUser, "applications.position_id", "applications.user_id") {
			return apperrors.ErrAlreadyApplied
		}
		logger.Error().Err(err).Int64("positionID", a.PositionID).Int64("userID", a.UserID).Msg("Error creating application")
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

// FindByID returns an application with its position's creator
func (r *ApplicationRepository) FindByID(ctx context.Context, id int64) (*models.ApplicationDetail, error) {
	cols := append(append([]string{}, applicationColumns...), "p.creator_id", "p.title")
	query, args, err := r.sb.Select(cols...).
		From("applications a").
		Join("positions p ON p.id = a.position_id").
		Where(sq.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building application query: %w", err)
	}

	var (
		d    models.ApplicationDetail
		scan applicationScan
	)
	dest := append(scan.targets(&d.Application), &d.PositionCreatorID, &d.PositionTitle)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}
	scan.apply(&d.Application)
	return &d, nil
}

// HasApplied reports whether the user already applied to the position
func (r *ApplicationRepository) HasApplied(ctx context.Context, positionID, userID int64) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("applications").
		Where(sq.Eq{"position_id": positionID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building has applied query: %w", err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking application: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus sets status and notes of an application
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus, notes *string) error {
	query, args, err := r.sb.Update("applications").
		Set("status", string(status)).
		Set("notes", helpers.NullableString(notes)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building update status query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating application status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// Delete removes an application permanently
func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("applications").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building delete application query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error deleting application: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// DeleteByUser removes every application of the user
func (r *ApplicationRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	query, args, err := r.sb.Delete("applications").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building delete applications query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting applications of user: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// CountByPosition returns the number of applications to a position
func (r *ApplicationRepository) CountByPosition(ctx context.Context, positionID int64) (int64, error) {
	return r.count(ctx, sq.Eq{"position_id": positionID})
}

// Count returns the number of applications
func (r *ApplicationRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, nil)
}

func (r *ApplicationRepository) count(ctx context.Context, where sq.Sqlizer) (int64, error) {
	builder := r.sb.Select("COUNT(*)").From("applications")
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building count applications query: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting applications: %w", err)
	}
	return total, nil
}

// ListByPosition returns applications to a position with applicant contact
// details and document names, newest first.
func (r *ApplicationRepository) ListByPosition(ctx context.Context, positionID int64) ([]*models.ApplicationDetail, error) {
	cols := append(append([]string{}, applicationColumns...),
		"u.username", "u.full_name", "u.email", "u.phone",
		"cv.original_name AS cv_original_name", "cl.original_name AS cover_letter_original_name",
	)
	builder := r.sb.Select(cols...).
		From("applications a").
		Join("users u ON u.id = a.user_id").
		LeftJoin("documents cv ON cv.id = a.cv_document_id").
		LeftJoin("documents cl ON cl.id = a.cover_letter_document_id").
		Where(sq.Eq{"a.position_id": positionID}).
		OrderBy("a.application_date DESC", "a.id DESC")

	return r.queryDetails(ctx, builder, func(d *models.ApplicationDetail, extra *detailScan) []any {
		return []any{&d.Username, &extra.fullName, &d.Email, &extra.phone, &extra.cvName, &extra.coverLetterName}
	})
}

// ListByUser returns the user's applications with position details, newest first
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.ApplicationDetail, error) {
	cols := append(append([]string{}, applicationColumns...),
		"p.title", "p.department", "p.location", "p.creator_id",
	)
	builder := r.sb.Select(cols...).
		From("applications a").
		Join("positions p ON p.id = a.position_id").
		Where(sq.Eq{"a.user_id": userID}).
		OrderBy("a.application_date DESC", "a.id DESC")

	return r.queryDetails(ctx, builder, func(d *models.ApplicationDetail, _ *detailScan) []any {
		return []any{&d.PositionTitle, &d.PositionDepartment, &d.PositionLocation, &d.PositionCreatorID}
	})
}

// ListAll returns every application with applicant and position details,
// newest first. A zero limit returns all rows.
func (r *ApplicationRepository) ListAll(ctx context.Context, offset, limit uint64) ([]*models.ApplicationDetail, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	cols := append(append([]string{}, applicationColumns...),
		"u.username", "u.full_name", "u.email",
		"p.title", "p.department", "p.location", "p.creator_id",
	)
	builder := r.sb.Select(cols...).
		From("applications a").
		Join("users u ON u.id = a.user_id").
		Join("positions p ON p.id = a.position_id").
		OrderBy("a.application_date DESC", "a.id DESC")
	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}

	details, err := r.queryDetails(ctx, builder, func(d *models.ApplicationDetail, extra *detailScan) []any {
		return []any{&d.Username, &extra.fullName, &d.Email,
			&d.PositionTitle, &d.PositionDepartment, &d.PositionLocation, &d.PositionCreatorID}
	})
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// detailScan holds nullable joined columns
type detailScan struct {
	fullName, phone         sql.NullString
	cvName, coverLetterName sql.NullString
}

func (r *ApplicationRepository) queryDetails(
	ctx context.Context,
	builder sq.SelectBuilder,
	extraTargets func(*models.ApplicationDetail, *detailScan) []any,
) ([]*models.ApplicationDetail, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building application listing query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	defer rows.Close()

	details := make([]*models.ApplicationDetail, 0)
	for rows.Next() {
		var (
			d     models.ApplicationDetail
			scan  applicationScan
			extra detailScan
		)
		dest := append(scan.targets(&d.Application), extraTargets(&d, &extra)...)
		if err := rows.Scan(dest...); err != nil {
			logger.Error().Err(err).Msg("Error scanning application")
			return nil, fmt.Errorf("error scanning application: %w", err)
		}
		scan.apply(&d.Application)
		d.FullName = helpers.StringPtr(extra.fullName)
		d.Phone = helpers.StringPtr(extra.phone)
		d.CVOriginalName = helpers.StringPtr(extra.cvName)
		d.CoverLetterOriginalName = helpers.StringPtr(extra.coverLetterName)
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}
	return details, nil
}
