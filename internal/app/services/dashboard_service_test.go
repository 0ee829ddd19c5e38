package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/cache"
)

func TestDashboardService_SectionsByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dash := NewDashboardService(env.repos, nil, 0, zerolog.Nop())

	admin := env.createUser(t, "admin", models.RoleAdmin)
	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	env.apply(t, student, position)

	out, err := dash.Build(ctx, principalOf(student))
	require.NoError(t, err)
	assert.Equal(t, "student", out.Profile.Username)
	assert.Len(t, out.CVs, 1)
	assert.Len(t, out.CoverLetters, 1)
	require.Len(t, out.Applications, 1)
	assert.Equal(t, "Backend developer", out.Applications[0].PositionTitle)
	assert.Nil(t, out.MyPositions)
	assert.Nil(t, out.Counts)

	out, err = dash.Build(ctx, principalOf(employer))
	require.NoError(t, err)
	assert.Len(t, out.MyPositions, 1)
	assert.Empty(t, out.Applications)
	assert.Nil(t, out.AllUsers)

	out, err = dash.Build(ctx, principalOf(admin))
	require.NoError(t, err)
	assert.Len(t, out.AllUsers, 3)
	assert.Len(t, out.AllApplications, 1)
	require.NotNil(t, out.Counts)
	assert.Equal(t, int64(3), out.Counts.Users)
	assert.Equal(t, int64(1), out.Counts.Positions)
	assert.Equal(t, int64(1), out.Counts.Applications)

	_, err = dash.Build(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestDashboardService_CountsAreCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	dash := NewDashboardService(env.repos, fc, time.Minute, zerolog.Nop())

	env.createUser(t, "admin", models.RoleAdmin)
	counts, err := dash.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Users)

	env.createUser(t, "student", models.RoleStudent)
	counts, err = dash.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Users, "served from cache until the entry expires")
}
