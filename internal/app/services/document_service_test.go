package services

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

func TestDocumentService_UploadRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "student", models.RoleStudent)

	_, err := env.documents.Upload(context.Background(), student.ID, pdfHeader(t, "cv.pdf"), "portfolio")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDocType)
}

func TestDocumentService_DownloadAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	rival := env.createUser(t, "rival", models.RoleEmployee)
	admin := env.createUser(t, "admin", models.RoleAdmin)
	student := env.createUser(t, "student", models.RoleStudent)
	other := env.createUser(t, "other", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	a := env.apply(t, student, position)
	cvID := *a.CVDocumentID

	tests := []struct {
		name    string
		caller  *appauth.Principal
		allowed bool
	}{
		{"owner", principalOf(student), true},
		{"position creator", principalOf(employer), true},
		{"admin", principalOf(admin), true},
		{"other student", principalOf(other), false},
		{"unrelated employee", principalOf(rival), false},
		{"anonymous", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl, err := env.documents.Download(ctx, cvID, tt.caller)
			if !tt.allowed {
				assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
				return
			}
			require.NoError(t, err)
			defer dl.File.Close()

			data, err := io.ReadAll(dl.File)
			require.NoError(t, err)
			assert.Equal(t, samplePDF, data)
			assert.Equal(t, "application/pdf", dl.Document.MimeType)
		})
	}
}

func TestDocumentService_DownloadMissing(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", models.RoleAdmin)

	_, err := env.documents.Download(context.Background(), 999, principalOf(admin))
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)

	ok, err := env.documents.CanAccess(context.Background(), 999, principalOf(admin))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentService_DeleteByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createUser(t, "student", models.RoleStudent)
	other := env.createUser(t, "other", models.RoleStudent)
	doc := env.upload(t, student, models.DocumentTypeCV)

	assert.ErrorIs(t, env.documents.DeleteByID(ctx, doc.ID, other.ID), apperrors.ErrDocumentNotFound)
	require.NoError(t, env.documents.DeleteByID(ctx, doc.ID, student.ID))

	_, err := env.documents.FindByID(ctx, doc.ID)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	_, _, err = env.storage.Open(doc.FilePath)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestDocumentService_DeletedDocumentLeavesApplication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	a := env.apply(t, student, position)

	require.NoError(t, env.documents.DeleteByID(ctx, *a.CVDocumentID, student.ID))

	got, err := env.repos.ApplicationRepository.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CVDocumentID)
	require.NotNil(t, got.CoverLetterDocumentID)
}

func TestDocumentService_FindByUserFiltersType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createUser(t, "student", models.RoleStudent)
	env.upload(t, student, models.DocumentTypeCV)
	env.upload(t, student, models.DocumentTypeCV)
	env.upload(t, student, models.DocumentTypeCoverLetter)

	cvType := models.DocumentTypeCV
	cvs, err := env.documents.FindByUser(ctx, student.ID, &cvType)
	require.NoError(t, err)
	assert.Len(t, cvs, 2)

	all, err := env.documents.FindByUser(ctx, student.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
