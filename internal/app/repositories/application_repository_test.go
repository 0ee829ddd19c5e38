package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/jobportal/internal/app/migrations"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/db"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()

	sqlDB, err := db.NewSQLiteDB(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrations.NewMigrator(sqlDB, db.SQLite).Migrate(context.Background()))

	return NewRepositories(&db.Database{DB: sqlDB, Dialect: db.SQLite})
}

func TestApplicationRepository_DuplicateInsertIsAlreadyApplied(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)

	employer := &models.User{Username: "employer", Email: "employer@example.com", PasswordHash: "x", Role: models.RoleEmployee, IsActive: true}
	student := &models.User{Username: "student", Email: "student@example.com", PasswordHash: "x", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, repos.UserRepository.Create(ctx, employer))
	require.NoError(t, repos.UserRepository.Create(ctx, student))

	position := &models.Position{CreatorID: employer.ID, Title: "Backend developer", Department: "IT", Location: "Oslo", Amount: 2}
	require.NoError(t, repos.PositionRepository.Create(ctx, position))

	first := &models.Application{PositionID: position.ID, UserID: student.ID}
	require.NoError(t, repos.ApplicationRepository.Create(ctx, first))
	assert.NotZero(t, first.ID)

	// a second insert that slipped past any service level check hits the
	// unique index and surfaces as a domain error
	second := &models.Application{PositionID: position.ID, UserID: student.ID}
	err := repos.ApplicationRepository.Create(ctx, second)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyApplied)

	count, err := repos.ApplicationRepository.CountByPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
