package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/jobportal/internal/app/migrations"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/db"
	"github.com/yigit/jobportal/internal/pkg/auth"
)

func newUserRepository(t *testing.T) *repositories.UserRepository {
	t.Helper()
	auth.BcryptCost = bcrypt.MinCost

	sqlDB, err := db.NewSQLiteDB(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrations.NewMigrator(sqlDB, db.SQLite).Migrate(context.Background()))

	return repositories.NewUserRepository(sqlDB, db.SQLite)
}

func TestCreateDefaultData(t *testing.T) {
	ctx := context.Background()
	users := newUserRepository(t)
	account := AdminAccount{Username: "Admin", Email: "Admin@Example.com", Password: "Admin1234"}

	require.NoError(t, CreateDefaultData(ctx, users, account, zerolog.Nop()))

	admin, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "Admin1234"))

	// a second run finds the admin and does nothing
	require.NoError(t, CreateDefaultData(ctx, users, account, zerolog.Nop()))
	count, err := users.CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateDefaultData_NoPassword(t *testing.T) {
	ctx := context.Background()
	users := newUserRepository(t)

	require.NoError(t, CreateDefaultData(ctx, users, AdminAccount{Username: "admin", Email: "admin@example.com"}, zerolog.Nop()))
	count, err := users.CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, count)
}
