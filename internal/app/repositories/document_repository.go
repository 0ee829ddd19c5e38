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
	"github.com/yigit/jobportal/internal/pkg/logger"
)

var documentColumns = []string{"id", "user_id", "type", "file_path", "original_name", "mime_type", "uploaded_at"}

// DocumentRepository handles database operations for uploaded documents
type DocumentRepository struct {
	base
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(q db.Querier, dialect db.Dialect) *DocumentRepository {
	return &DocumentRepository{base: newBase(q, dialect)}
}

// WithTx returns a copy of the repository that runs inside tx
func (r *DocumentRepository) WithTx(tx *sql.Tx) *DocumentRepository {
	return &DocumentRepository{base: r.withTx(tx)}
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	if err := row.Scan(&d.ID, &d.UserID, &d.Type, &d.FilePath, &d.OriginalName, &d.MimeType, &d.UploadedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepository) queryDocuments(ctx context.Context, builder sq.SelectBuilder) ([]*models.Document, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building document query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning document")
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// Create inserts document metadata and sets its ID
func (r *DocumentRepository) Create(ctx context.Context, d *models.Document) error {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	query, args, err := r.sb.Insert("documents").
		Columns("user_id", "type", "file_path", "original_name", "mime_type", "uploaded_at").
		Values(d.UserID, string(d.Type), d.FilePath, d.OriginalName, d.MimeType, d.UploadedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create document query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&d.ID); err != nil {
		return fmt.Errorf("error creating document: %w", err)
	}
	return nil
}

// FindByID returns a document by ID
func (r *DocumentRepository) FindByID(ctx context.Context, id int64) (*models.Document, error) {
	query, args, err := r.sb.Select(documentColumns...).From("documents").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building document query: %w", err)
	}

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("error retrieving document: %w", err)
	}
	return d, nil
}

// FindByUser returns the user's documents, newest first, optionally of one type
func (r *DocumentRepository) FindByUser(ctx context.Context, userID int64, docType *models.DocumentType) ([]*models.Document, error) {
	builder := r.sb.Select(documentColumns...).From("documents").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("uploaded_at DESC", "id DESC")
	if docType != nil {
		builder = builder.Where(sq.Eq{"type": string(*docType)})
	}
	return r.queryDocuments(ctx, builder)
}

// Delete removes a document row owned by userID
func (r *DocumentRepository) Delete(ctx context.Context, id, userID int64) error {
	query, args, err := r.sb.Delete("documents").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("error building delete document query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error deleting document: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrDocumentNotFound
	}
	return nil
}

// DeleteByUser removes every document row of the user
func (r *DocumentRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	query, args, err := r.sb.Delete("documents").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building delete documents query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting documents of user: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// IsAttachedToPositionOf reports whether the document is referenced by an
// application to a position created by creatorID.
func (r *DocumentRepository) IsAttachedToPositionOf(ctx context.Context, documentID, creatorID int64) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("applications a").
		Join("positions p ON p.id = a.position_id").
		Where(sq.Eq{"p.creator_id": creatorID}).
		Where(sq.Or{
			sq.Eq{"a.cv_document_id": documentID},
			sq.Eq{"a.cover_letter_document_id": documentID},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building document access query: %w", err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking document access: %w", err)
	}
	return count > 0, nil
}
