package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

func TestPositionService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	employer := env.createUser(t, "employer", models.RoleEmployee)

	tests := []struct {
		name  string
		req   dto.PositionRequest
		field string
	}{
		{"amount above range", dto.PositionRequest{Title: "Dev", Department: "IT", Location: "Oslo", Amount: 26}, "amount"},
		{"amount zero", dto.PositionRequest{Title: "Dev", Department: "IT", Location: "Oslo", Amount: 0}, "amount"},
		{"blank title", dto.PositionRequest{Title: "   ", Department: "IT", Location: "Oslo", Amount: 1}, "title"},
		{"bad url", dto.PositionRequest{Title: "Dev", Department: "IT", Location: "Oslo", Amount: 1, ResourceURL: "javascript:alert(1)"}, "resource_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.positions.Create(context.Background(), principalOf(employer), &req)
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Contains(t, apperrors.FieldErrors(err), tt.field)
		})
	}
}

func TestPositionService_CreateRequiresManager(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "student", models.RoleStudent)

	_, err := env.positions.Create(context.Background(), principalOf(student), &dto.PositionRequest{
		Title: "Dev", Department: "IT", Location: "Oslo", Amount: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestPositionService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	rival := env.createUser(t, "rival", models.RoleEmployee)
	admin := env.createUser(t, "admin", models.RoleAdmin)
	position := env.createPosition(t, employer, "Backend developer")

	// count row writes so an unchanged form can be shown to touch nothing
	_, err := env.db.DB.ExecContext(ctx, `CREATE TABLE position_writes (n INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = env.db.DB.ExecContext(ctx, `CREATE TRIGGER count_position_writes AFTER UPDATE ON positions
		BEGIN INSERT INTO position_writes (n) VALUES (1); END`)
	require.NoError(t, err)
	writes := func() int {
		var n int
		require.NoError(t, env.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM position_writes`).Scan(&n))
		return n
	}

	before, err := env.positions.FindByID(ctx, position.ID)
	require.NoError(t, err)
	same := &dto.PositionRequest{Title: " Backend developer ", Department: "IT", Location: "Oslo", Amount: 2}
	assert.ErrorIs(t, env.positions.Update(ctx, principalOf(employer), position.ID, same), apperrors.ErrNoChanges)
	after, err := env.positions.FindByID(ctx, position.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, writes(), "an unchanged form writes nothing")

	changed := &dto.PositionRequest{Title: "Senior backend developer", Department: "IT", Location: "Bergen", Amount: 3}
	assert.ErrorIs(t, env.positions.Update(ctx, principalOf(rival), position.ID, changed), apperrors.ErrPermissionDenied)

	require.NoError(t, env.positions.Update(ctx, principalOf(employer), position.ID, changed))
	assert.Equal(t, 1, writes())
	got, err := env.positions.FindByID(ctx, position.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior backend developer", got.Title)
	assert.Equal(t, "Bergen", got.Location)
	assert.Equal(t, 3, got.Amount)
	assert.Equal(t, "employer", got.CreatorUsername)

	changed.Amount = 4
	require.NoError(t, env.positions.Update(ctx, principalOf(admin), position.ID, changed), "admins manage every position")
}

func TestPositionService_DeleteCascadesApplications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	rival := env.createUser(t, "rival", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	a := env.apply(t, student, position)

	assert.ErrorIs(t, env.positions.Delete(ctx, principalOf(rival), position.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, env.positions.Delete(ctx, principalOf(employer), position.ID))

	_, err := env.positions.FindByID(ctx, position.ID)
	assert.ErrorIs(t, err, apperrors.ErrPositionNotFound)
	_, err = env.repos.ApplicationRepository.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)

	docs, err := env.documents.FindByUser(ctx, student.ID, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2, "the applicant keeps their documents")
}

func TestPositionService_ListAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	for _, title := range []string{"One", "Two", "Three"} {
		env.createPosition(t, employer, title)
	}

	page, total, err := env.positions.ListAll(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	mine, err := env.positions.FindByCreator(ctx, employer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}
