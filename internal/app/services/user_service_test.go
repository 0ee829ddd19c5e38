package services

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

func (e *testEnv) userDir(id int64) string {
	return filepath.Join(e.storage.Root(), "users", strconv.FormatInt(id, 10))
}

func TestUserService_StudentToEmployeeDropsApplicationsAndDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", models.RoleAdmin)
	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	a := env.apply(t, student, position)

	docs, err := env.documents.FindByUser(ctx, student.ID, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	stored := filepath.Join(env.storage.Root(), filepath.FromSlash(docs[0].FilePath))
	require.FileExists(t, stored)

	require.NoError(t, env.users.UpdateRole(ctx, principalOf(admin), student.ID, models.RoleEmployee))

	u, err := env.users.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, u.Role)

	_, err = env.repos.ApplicationRepository.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)

	docs, err = env.documents.FindByUser(ctx, student.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoFileExists(t, stored)
	assert.NoDirExists(t, env.userDir(student.ID))
}

func TestUserService_EmployeeToStudentDropsPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", models.RoleAdmin)
	employer := env.createUser(t, "employer", models.RoleEmployee)
	env.createPosition(t, employer, "Backend developer")
	env.createPosition(t, employer, "Frontend developer")

	require.NoError(t, env.users.UpdateRole(ctx, principalOf(admin), employer.ID, models.RoleStudent))

	positions, err := env.positions.FindByCreator(ctx, employer.ID)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestUserService_EmployeeToAdminDropsPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", models.RoleAdmin)
	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	env.apply(t, student, position)

	require.NoError(t, env.users.UpdateRole(ctx, principalOf(admin), employer.ID, models.RoleAdmin))

	positions, err := env.positions.FindByCreator(ctx, employer.ID)
	require.NoError(t, err)
	assert.Empty(t, positions)

	count, err := env.repos.ApplicationRepository.CountByPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "applications go with the position")
}

func TestUserService_AdminToEmployeeDropsPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", models.RoleAdmin)
	other := env.createUser(t, "other", models.RoleAdmin)
	env.createPosition(t, other, "Platform engineer")

	require.NoError(t, env.users.UpdateRole(ctx, principalOf(admin), other.ID, models.RoleEmployee))

	u, err := env.users.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, u.Role)

	positions, err := env.positions.FindByCreator(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

type recordingDocuments struct {
	DocumentService
	removed map[int64][]string
}

func (r *recordingDocuments) RemoveFiles(userID int64, paths []string, removeDir bool) {
	r.removed[userID] = append(r.removed[userID], paths...)
	r.DocumentService.RemoveFiles(userID, paths, removeDir)
}

func TestUserService_RemovesFilesThroughDocumentService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := &recordingDocuments{DocumentService: env.documents, removed: make(map[int64][]string)}
	users := NewUserService(env.repos, env.db, docs, zerolog.Nop())

	admin := env.createUser(t, "admin", models.RoleAdmin)
	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	env.apply(t, student, env.createPosition(t, employer, "Backend developer"))

	require.NoError(t, users.UpdateRole(ctx, principalOf(admin), student.ID, models.RoleEmployee))
	assert.Len(t, docs.removed[student.ID], 2)
	assert.NoDirExists(t, env.userDir(student.ID))

	other := env.createUser(t, "other", models.RoleStudent)
	cv := env.upload(t, other, models.DocumentTypeCV)
	require.NoError(t, users.DeleteSelf(ctx, principalOf(other)))
	assert.Equal(t, []string{cv.FilePath}, docs.removed[other.ID])
	assert.NoDirExists(t, env.userDir(other.ID))
}

func TestUserService_UpdateRoleRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", models.RoleAdmin)
	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)

	assert.ErrorIs(t, env.users.UpdateRole(ctx, principalOf(employer), student.ID, models.RoleAdmin), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, env.users.UpdateRole(ctx, principalOf(admin), admin.ID, models.RoleStudent), apperrors.ErrSelfRoleChange)
	assert.ErrorIs(t, env.users.UpdateRole(ctx, principalOf(admin), student.ID, "owner"), apperrors.ErrInvalidRole)
	assert.ErrorIs(t, env.users.UpdateRole(ctx, principalOf(admin), student.ID, models.RoleStudent), apperrors.ErrNoChanges)
	assert.ErrorIs(t, env.users.UpdateRole(ctx, principalOf(admin), student.ID+100, models.RoleAdmin), apperrors.ErrUserNotFound)
}

func TestUserService_DeleteSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "employer", models.RoleEmployee)
	student := env.createUser(t, "student", models.RoleStudent)
	position := env.createPosition(t, employer, "Backend developer")
	env.apply(t, student, position)
	require.DirExists(t, env.userDir(student.ID))

	require.NoError(t, env.users.DeleteSelf(ctx, principalOf(student)))

	_, err := env.users.GetByID(ctx, student.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.NoDirExists(t, env.userDir(student.ID))

	count, err := env.repos.ApplicationRepository.CountByPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserService_AdminDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", models.RoleAdmin)
	employer := env.createUser(t, "employer", models.RoleEmployee)
	position := env.createPosition(t, employer, "Backend developer")

	assert.ErrorIs(t, env.users.AdminDelete(ctx, principalOf(admin), admin.ID), apperrors.ErrSelfDelete)
	assert.ErrorIs(t, env.users.AdminDelete(ctx, principalOf(employer), admin.ID), apperrors.ErrPermissionDenied)

	require.NoError(t, env.users.AdminDelete(ctx, principalOf(admin), employer.ID))
	_, err := env.positions.FindByID(ctx, position.ID)
	assert.ErrorIs(t, err, apperrors.ErrPositionNotFound, "positions go with their creator")
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createUser(t, "student", models.RoleStudent)

	err := env.users.UpdateProfile(ctx, student.ID, &dto.UpdateProfileRequest{FullName: "Ola", Phone: "12ab"})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, apperrors.FieldErrors(err), "phone")

	require.NoError(t, env.users.UpdateProfile(ctx, student.ID, &dto.UpdateProfileRequest{FullName: "Ola Nordmann", Phone: "98765432"}))
	u, err := env.users.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, u.FullName)
	assert.Equal(t, "Ola Nordmann", *u.FullName)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "98765432", *u.Phone)
}
