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
	"github.com/yigit/jobportal/internal/pkg/helpers"
	"github.com/yigit/jobportal/internal/pkg/logger"
)

// PositionRepository handles database operations for positions
type PositionRepository struct {
	base
}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository(q db.Querier, dialect db.Dialect) *PositionRepository {
	return &PositionRepository{base: newBase(q, dialect)}
}

// WithTx returns a copy of the repository that runs inside tx
func (r *PositionRepository) WithTx(tx *sql.Tx) *PositionRepository {
	return &PositionRepository{base: r.withTx(tx)}
}

// selectListingQuery joins the creator and counts applications, newest first
func (r *PositionRepository) selectListingQuery() sq.SelectBuilder {
	return r.sb.Select(
		"p.id", "p.creator_id", "p.title", "p.department", "p.location", "p.amount",
		"p.description", "p.resource_url", "p.created_at",
		"u.username AS creator_username", "u.full_name AS creator_full_name",
		"(SELECT COUNT(*) FROM applications a WHERE a.position_id = p.id) AS application_count",
	).From("positions p").
		Join("users u ON u.id = p.creator_id").
		OrderBy("p.created_at DESC", "p.id DESC")
}

func scanPositionListing(row rowScanner) (*models.PositionListing, error) {
	var (
		p                        models.PositionListing
		description, resourceURL sql.NullString
		creatorFullName          sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.CreatorID, &p.Title, &p.Department, &p.Location, &p.Amount,
		&description, &resourceURL, &p.CreatedAt,
		&p.CreatorUsername, &creatorFullName, &p.ApplicationCount,
	)
	if err != nil {
		return nil, err
	}
	p.Description = helpers.StringPtr(description)
	p.ResourceURL = helpers.StringPtr(resourceURL)
	p.CreatorFullName = helpers.StringPtr(creatorFullName)
	return &p, nil
}

func (r *PositionRepository) queryListings(ctx context.Context, builder sq.SelectBuilder) ([]*models.PositionListing, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building position listing query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing positions: %w", err)
	}
	defer rows.Close()

	positions := make([]*models.PositionListing, 0)
	for rows.Next() {
		p, err := scanPositionListing(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning position")
			return nil, fmt.Errorf("error scanning position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// Create inserts a position and sets its ID and creation time
func (r *PositionRepository) Create(ctx context.Context, p *models.Position) error {
	p.CreatedAt = time.Now().UTC()
	query, args, err := r.sb.Insert("positions").
		Columns("creator_id", "title", "department", "location", "amount", "description", "resource_url", "created_at").
		Values(p.CreatorID, p.Title, p.Department, p.Location, p.Amount,
			helpers.NullableString(p.Description), helpers.NullableString(p.ResourceURL), p.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create position query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID); err != nil {
		logger.Error().Err(err).Int64("creatorID", p.CreatorID).Msg("Error creating position")
		return fmt.Errorf("error creating position: %w", err)
	}
	return nil
}

// Update writes the editable fields of a position
func (r *PositionRepository) Update(ctx context.Context, p *models.Position) error {
	query, args, err := r.sb.Update("positions").
		Set("title", p.Title).
		Set("department", p.Department).
		Set("location", p.Location).
		Set("amount", p.Amount).
		Set("description", helpers.NullableString(p.Description)).
		Set("resource_url", helpers.NullableString(p.ResourceURL)).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building update position query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating position: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrPositionNotFound
	}
	return nil
}

// Delete removes a position; its applications follow by cascade
func (r *PositionRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("positions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building delete position query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error deleting position: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrPositionNotFound
	}
	return nil
}

// DeleteByCreator removes every position created by the user and returns how many
func (r *PositionRepository) DeleteByCreator(ctx context.Context, creatorID int64) (int64, error) {
	query, args, err := r.sb.Delete("positions").Where(sq.Eq{"creator_id": creatorID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building delete positions query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting positions of user: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// FindByID returns a position with its creator and application count
func (r *PositionRepository) FindByID(ctx context.Context, id int64) (*models.PositionListing, error) {
	query, args, err := r.selectListingQuery().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building position query: %w", err)
	}

	p, err := scanPositionListing(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrPositionNotFound
		}
		return nil, fmt.Errorf("error retrieving position: %w", err)
	}
	return p, nil
}

// ListAll returns a page of positions, newest first, with the total count.
// A zero limit returns every position.
func (r *PositionRepository) ListAll(ctx context.Context, offset, limit uint64) ([]*models.PositionListing, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	builder := r.selectListingQuery()
	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}
	positions, err := r.queryListings(ctx, builder)
	if err != nil {
		return nil, 0, err
	}
	return positions, total, nil
}

// FindByCreator returns the positions a user created, newest first
func (r *PositionRepository) FindByCreator(ctx context.Context, creatorID int64) ([]*models.PositionListing, error) {
	return r.queryListings(ctx, r.selectListingQuery().Where(sq.Eq{"p.creator_id": creatorID}))
}

// Count returns the total number of positions
func (r *PositionRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("positions").ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building count positions query: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting positions: %w", err)
	}
	return total, nil
}
