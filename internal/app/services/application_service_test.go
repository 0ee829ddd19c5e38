package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

func TestApplicationService_ApplyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")

	cv := env.upload(t, student, models.DocumentTypeCV)
	cover := env.upload(t, student, models.DocumentTypeCoverLetter)
	in := ApplyInput{CVDocumentID: cv.ID, CoverLetterDocumentID: cover.ID, Notes: "<b>Available</b> from June"}

	a, err := env.applications.Apply(ctx, principalOf(student), position.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)
	require.NotNil(t, a.Notes)
	assert.Equal(t, "Available from June", *a.Notes)

	_, err = env.applications.Apply(ctx, principalOf(student), position.ID, in)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyApplied)

	applied, err := env.applications.HasApplied(ctx, position.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestApplicationService_ConcurrentApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	cv := env.upload(t, student, models.DocumentTypeCV)
	cover := env.upload(t, student, models.DocumentTypeCoverLetter)

	const attempts = 5
	var (
		wg   sync.WaitGroup
		errs = make([]error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.applications.Apply(ctx, principalOf(student), position.ID, ApplyInput{
				CVDocumentID:          cv.ID,
				CoverLetterDocumentID: cover.ID,
			})
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrAlreadyApplied)
	}
	assert.Equal(t, 1, created)

	count, err := env.repos.ApplicationRepository.CountByPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestApplicationService_ApplyDocumentChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	other := env.createUser(t, "other", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")

	cv := env.upload(t, student, models.DocumentTypeCV)
	cover := env.upload(t, student, models.DocumentTypeCoverLetter)
	otherCover := env.upload(t, other, models.DocumentTypeCoverLetter)

	_, err := env.applications.Apply(ctx, principalOf(student), position.ID, ApplyInput{CVDocumentID: cv.ID})
	assert.ErrorIs(t, err, apperrors.ErrDocumentRequired)

	_, err = env.applications.Apply(ctx, principalOf(student), position.ID, ApplyInput{CVDocumentID: cv.ID, CoverLetterDocumentID: otherCover.ID})
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound, "another user's document cannot be attached")

	_, err = env.applications.Apply(ctx, principalOf(student), position.ID, ApplyInput{CVDocumentID: cover.ID, CoverLetterDocumentID: cover.ID})
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound, "the document type must match the slot")

	_, err = env.applications.Apply(ctx, principalOf(student), position.ID+100, ApplyInput{CVDocumentID: cv.ID, CoverLetterDocumentID: cover.ID})
	assert.ErrorIs(t, err, apperrors.ErrPositionNotFound)
}

func TestApplicationService_ApplyRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	admin := env.createUser(t, "admin", models.RoleAdmin)
	position := env.createPosition(t, employer, "Backend developer")

	_, err := env.applications.Apply(ctx, principalOf(employer), position.ID, ApplyInput{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = env.applications.Apply(ctx, nil, position.ID, ApplyInput{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	env.apply(t, admin, position)
}

func TestApplicationService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	rival := env.createUser(t, "rival", models.RoleEmployee)
	admin := env.createUser(t, "admin", models.RoleAdmin)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	a := env.apply(t, student, position)

	err := env.applications.UpdateStatus(ctx, nil, position.ID, a.ID, models.StatusAccepted, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	err = env.applications.UpdateStatus(ctx, principalOf(employer), position.ID, a.ID, "hired", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	err = env.applications.UpdateStatus(ctx, principalOf(rival), position.ID, a.ID, models.StatusAccepted, "")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	err = env.applications.UpdateStatus(ctx, principalOf(employer), position.ID+1, a.ID, models.StatusAccepted, "")
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound, "the application must belong to the position in the path")

	require.NoError(t, env.applications.UpdateStatus(ctx, principalOf(employer), position.ID, a.ID, models.StatusReviewed, "<i>Call back</i>"))
	got, err := env.repos.ApplicationRepository.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewed, got.Status)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "Call back", *got.Notes)

	require.NoError(t, env.applications.UpdateStatus(ctx, principalOf(admin), position.ID, a.ID, models.StatusRejected, ""))
}

func TestApplicationService_Withdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	other := env.createUser(t, "other", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	a := env.apply(t, student, position)

	err := env.applications.Withdraw(ctx, principalOf(other), a.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	require.NoError(t, env.applications.Withdraw(ctx, principalOf(student), a.ID))
	_, err = env.repos.ApplicationRepository.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)

	docs, err := env.documents.FindByUser(ctx, student.ID, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2, "documents stay after a withdrawal")

	env.apply(t, student, position)
}

func TestApplicationService_ListByPosition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	rival := env.createUser(t, "rival", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	env.apply(t, student, position)

	listing, apps, err := env.applications.ListByPosition(ctx, principalOf(employer), position.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), listing.ApplicationCount)
	require.Len(t, apps, 1)
	assert.Equal(t, "student", apps[0].Username)

	_, _, err = env.applications.ListByPosition(ctx, principalOf(rival), position.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, _, err = env.applications.ListAll(ctx, principalOf(employer), 1, 20)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
