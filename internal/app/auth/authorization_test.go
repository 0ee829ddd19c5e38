package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

type stubAttachments struct {
	attached bool
	err      error
	calls    int
}

func (s *stubAttachments) IsAttachedToPositionOf(ctx context.Context, documentID, creatorID int64) (bool, error) {
	s.calls++
	return s.attached, s.err
}

var (
	student  = &Principal{UserID: 1, Username: "student", Role: models.RoleStudent}
	employee = &Principal{UserID: 2, Username: "employee", Role: models.RoleEmployee}
	admin    = &Principal{UserID: 3, Username: "admin", Role: models.RoleAdmin}
)

func TestCanManagePosition(t *testing.T) {
	own := &models.Position{ID: 10, CreatorID: employee.UserID}
	foreign := &models.Position{ID: 11, CreatorID: 99}

	assert.True(t, CanManagePosition(employee, own))
	assert.False(t, CanManagePosition(employee, foreign))
	assert.True(t, CanManagePosition(admin, foreign))
	assert.False(t, CanManagePosition(student, &models.Position{CreatorID: student.UserID}), "students never manage positions")
	assert.False(t, CanManagePosition(nil, own))
	assert.False(t, CanManagePosition(admin, nil))

	err := ValidatePositionOwnership(employee, foreign)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.NoError(t, ValidatePositionOwnership(employee, own))
}

func TestCanWithdrawApplication(t *testing.T) {
	application := &models.Application{ID: 5, UserID: student.UserID}

	assert.True(t, CanWithdrawApplication(student, application))
	assert.True(t, CanWithdrawApplication(admin, application))
	assert.False(t, CanWithdrawApplication(employee, application))
	assert.False(t, CanWithdrawApplication(nil, application))
}

func TestRoleChangeAndDelete(t *testing.T) {
	assert.True(t, CanChangeRole(admin, student.UserID))
	assert.False(t, CanChangeRole(admin, admin.UserID))
	assert.False(t, CanChangeRole(employee, student.UserID))
	assert.False(t, CanChangeRole(nil, student.UserID))

	assert.True(t, CanAdminDelete(admin, employee.UserID))
	assert.False(t, CanAdminDelete(admin, admin.UserID))
}

func TestPrincipalContext(t *testing.T) {
	_, err := RequirePrincipal(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	ctx := WithPrincipal(context.Background(), employee)
	p, err := RequirePrincipal(ctx)
	require.NoError(t, err)
	assert.Equal(t, employee, p)

	_, ok := PrincipalFrom(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)
}

func TestCanAccessDocument(t *testing.T) {
	ctx := context.Background()
	doc := &models.Document{ID: 7, UserID: student.UserID, Type: models.DocumentTypeCV}

	stub := &stubAttachments{}
	svc := NewAuthorizationService(stub)

	ok, err := svc.CanAccessDocument(ctx, student, doc)
	require.NoError(t, err)
	assert.True(t, ok, "owner")

	ok, err = svc.CanAccessDocument(ctx, admin, doc)
	require.NoError(t, err)
	assert.True(t, ok, "admin")

	ok, err = svc.CanAccessDocument(ctx, &Principal{UserID: 4, Role: models.RoleStudent}, doc)
	require.NoError(t, err)
	assert.False(t, ok, "another student")
	assert.Zero(t, stub.calls, "students are never checked against applications")

	ok, err = svc.CanAccessDocument(ctx, employee, doc)
	require.NoError(t, err)
	assert.False(t, ok, "employee without an application to their position")

	stub.attached = true
	ok, err = svc.CanAccessDocument(ctx, employee, doc)
	require.NoError(t, err)
	assert.True(t, ok, "employee receiving the application")

	ok, err = svc.CanAccessDocument(ctx, nil, doc)
	require.NoError(t, err)
	assert.False(t, ok)

	stub.err = errors.New("db down")
	_, err = svc.CanAccessDocument(ctx, employee, doc)
	assert.Error(t, err)
}
