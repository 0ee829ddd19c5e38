package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/migrations"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/db"
	"github.com/yigit/jobportal/internal/pkg/auth"
	"github.com/yigit/jobportal/internal/pkg/filestorage"
)

const testPassword = "Passord12"

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testEnv struct {
	db           *db.Database
	repos        *repositories.Repositories
	storage      *filestorage.LocalStorage
	documents    DocumentService
	users        *UserService
	positions    *PositionService
	applications *ApplicationService
}

// newTestEnv wires the services over a migrated in-memory SQLite database
// and a temporary uploads root
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqlDB, err := db.NewSQLiteDB(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	database := &db.Database{DB: sqlDB, Dialect: db.SQLite}
	require.NoError(t, migrations.NewMigrator(sqlDB, db.SQLite).Migrate(context.Background()))

	storage, err := filestorage.NewLocalStorage(t.TempDir(), filestorage.DefaultMaxUploadSize)
	require.NoError(t, err)

	lgr := zerolog.Nop()
	repos := repositories.NewRepositories(database)
	documents := NewDocumentService(repos, storage, appauth.NewAuthorizationService(repos.DocumentRepository), lgr)

	return &testEnv{
		db:           database,
		repos:        repos,
		storage:      storage,
		documents:    documents,
		users:        NewUserService(repos, database, documents, lgr),
		positions:    NewPositionService(repos, lgr),
		applications: NewApplicationService(repos, lgr),
	}
}

func (e *testEnv) createUser(t *testing.T, username string, role models.RoleType) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.repos.UserRepository.Create(context.Background(), u))
	return u
}

func principalOf(u *models.User) *appauth.Principal {
	return &appauth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *testEnv) createPosition(t *testing.T, creator *models.User, title string) *models.Position {
	t.Helper()

	p, err := e.positions.Create(context.Background(), principalOf(creator), &dto.PositionRequest{
		Title:      title,
		Department: "IT",
		Location:   "Oslo",
		Amount:     2,
	})
	require.NoError(t, err)
	return p
}

// pdfHeader builds a multipart file header carrying a small PDF
func pdfHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(samplePDF)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func (e *testEnv) upload(t *testing.T, user *models.User, docType models.DocumentType) *models.Document {
	t.Helper()

	doc, err := e.documents.Upload(context.Background(), user.ID, pdfHeader(t, string(docType)+".pdf"), docType)
	require.NoError(t, err)
	return doc
}

// apply uploads a fresh CV and cover letter and applies with them
func (e *testEnv) apply(t *testing.T, user *models.User, position *models.Position) *models.Application {
	t.Helper()

	cv := e.upload(t, user, models.DocumentTypeCV)
	cover := e.upload(t, user, models.DocumentTypeCoverLetter)
	a, err := e.applications.Apply(context.Background(), principalOf(user), position.ID, ApplyInput{
		CVDocumentID:          cv.ID,
		CoverLetterDocumentID: cover.ID,
	})
	require.NoError(t, err)
	return a
}
