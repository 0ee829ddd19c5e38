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

const (
	constraintUsersUsername = "uq_users_username"
	constraintUsersEmail    = "uq_users_email"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "full_name", "phone", "role", "is_active",
	"failed_attempts", "lockout_until", "reset_token", "reset_token_expires_at",
	"created_at", "updated_at",
}

// UserRepository handles database operations for users
type UserRepository struct {
	base
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(q db.Querier, dialect db.Dialect) *UserRepository {
	return &UserRepository{base: newBase(q, dialect)}
}

// WithTx returns a copy of the repository that runs inside tx
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{base: r.withTx(tx)}
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                            models.User
		fullName, phone, resetToken  sql.NullString
		lockoutUntil, resetExpiresAt sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &phone, &u.Role, &u.IsActive,
		&u.FailedAttempts, &lockoutUntil, &resetToken, &resetExpiresAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.FullName = helpers.StringPtr(fullName)
	u.Phone = helpers.StringPtr(phone)
	u.ResetToken = helpers.StringPtr(resetToken)
	if lockoutUntil.Valid {
		t := lockoutUntil.Time
		u.LockoutUntil = &t
	}
	if resetExpiresAt.Valid {
		t := resetExpiresAt.Time
		u.ResetTokenExpiresAt = &t
	}
	return &u, nil
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Sqlizer) (*models.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// Create inserts a new user and sets its ID. Username and email collisions
// are reported as distinct errors.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	query, args, err := r.sb.Insert("users").
		Columns("username", "email", "password_hash", "full_name", "phone", "role", "is_active", "created_at", "updated_at").
		Values(user.Username, user.Email, user.PasswordHash,
			helpers.NullableString(user.FullName), helpers.NullableString(user.Phone),
			string(user.Role), user.IsActive, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create user query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, constraintUsersUsername, "users.username"):
			return apperrors.ErrUsernameTaken
		case dberrors.IsDuplicateConstraintError(err, constraintUsersEmail, "users.email"):
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByUsername retrieves a user by (normalised) username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username})
}

// GetByEmail retrieves a user by (normalised) email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

// GetByResetToken retrieves the user holding the given reset token digest.
// Expiry is checked by the caller.
func (r *UserRepository) GetByResetToken(ctx context.Context, digest string) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"reset_token": digest})
}

func (r *UserRepository) exists(ctx context.Context, column, value string) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{column: value}).ToSql()
	if err != nil {
		return false, fmt.Errorf("error building exists query: %w", err)
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking %s: %w", column, err)
	}
	return count > 0, nil
}

// UsernameExists checks if a username is already registered
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

// List returns users ordered by username with the total count
func (r *UserRepository) List(ctx context.Context, offset, limit uint64) ([]*models.User, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	builder := r.sb.Select(userColumns...).From("users").OrderBy("username ASC")
	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building list users query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return total, nil
}

// CountByRole returns the number of users with the given role
func (r *UserRepository) CountByRole(ctx context.Context, role models.RoleType) (int64, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"role": string(role)}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building count by role query: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting users by role: %w", err)
	}
	return total, nil
}

func (r *UserRepository) update(ctx context.Context, userID int64, set map[string]interface{}) error {
	set["updated_at"] = time.Now().UTC()
	query, args, err := r.sb.Update("users").SetMap(set).Where(sq.Eq{"id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("error building update user query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// IncrementFailedAttempts adds one failed login and returns the new count
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, userID int64) (int, error) {
	query, args, err := r.sb.Update("users").
		Set("failed_attempts", sq.Expr("failed_attempts + 1")).
		Where(sq.Eq{"id": userID}).
		Suffix("RETURNING failed_attempts").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building failed attempts query: %w", err)
	}

	var attempts int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.ErrUserNotFound
		}
		return 0, fmt.Errorf("error incrementing failed attempts: %w", err)
	}
	return attempts, nil
}

// LockAccount locks the account until the given instant and resets the failure count
func (r *UserRepository) LockAccount(ctx context.Context, userID int64, until time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{
		"lockout_until":   until.UTC(),
		"failed_attempts": 0,
	})
}

// ResetLoginState clears failed attempts and any lockout
func (r *UserRepository) ResetLoginState(ctx context.Context, userID int64) error {
	return r.update(ctx, userID, map[string]interface{}{
		"failed_attempts": 0,
		"lockout_until":   nil,
	})
}

// SetResetToken stores a reset token digest with its expiry, replacing any previous one
func (r *UserRepository) SetResetToken(ctx context.Context, userID int64, digest string, expiresAt time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{
		"reset_token":            digest,
		"reset_token_expires_at": expiresAt.UTC(),
	})
}

// ClearResetToken invalidates the user's reset token
func (r *UserRepository) ClearResetToken(ctx context.Context, userID int64) error {
	return r.update(ctx, userID, map[string]interface{}{
		"reset_token":            nil,
		"reset_token_expires_at": nil,
	})
}

// UpdatePassword stores a new hash. It also consumes any reset token and
// clears the lockout state.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"password_hash":          passwordHash,
		"reset_token":            nil,
		"reset_token_expires_at": nil,
		"failed_attempts":        0,
		"lockout_until":          nil,
	})
}

// UpdateProfile sets the optional full name and phone
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, fullName, phone *string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"full_name": helpers.NullableString(fullName),
		"phone":     helpers.NullableString(phone),
	})
}

// UpdateRole changes the user's role
func (r *UserRepository) UpdateRole(ctx context.Context, userID int64, role models.RoleType) error {
	return r.update(ctx, userID, map[string]interface{}{
		"role": string(role),
	})
}

// Delete removes the user; positions, documents and applications follow by cascade
func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	query, args, err := r.sb.Delete("users").Where(sq.Eq{"id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("error building delete user query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
