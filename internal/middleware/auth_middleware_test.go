package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/auth"
	"github.com/yigit/jobportal/internal/pkg/flash"
)

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

type fixture struct {
	router   *gin.Engine
	sessions *auth.SessionService
	flashes  *flash.MemoryStore
	users    stubUsers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		sessions: auth.NewSessionService(auth.SessionConfig{SecretKey: "test-secret", Issuer: "jobportal"}),
		flashes:  flash.NewMemoryStore(),
		users: stubUsers{
			1: {ID: 1, Username: "student", Role: models.RoleStudent, IsActive: true},
			2: {ID: 2, Username: "employee", Role: models.RoleEmployee, IsActive: true},
			3: {ID: 3, Username: "disabled", Role: models.RoleAdmin, IsActive: false},
		},
	}
	m := NewAuthMiddleware(f.sessions, f.users, f.flashes, false, zerolog.Nop())

	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r := gin.New()
	r.Use(m.Session())
	r.GET("/login", m.GuestOnly(), ok)
	authed := r.Group("")
	authed.Use(m.RequireAuth())
	{
		authed.GET("/min-side", func(c *gin.Context) { c.String(http.StatusOK, CurrentPrincipal(c).Username) })
		authed.GET("/positions/new", m.RequireRole(models.RoleEmployee, models.RoleAdmin), ok)
	}
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, path string, userID int64, sid string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	}
	if userID > 0 {
		u := f.users[userID]
		token, err := f.sessions.Issue(u.ID, u.Username, string(u.Role))
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "/min-side", 0, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), SessionCookie+"=", "every visitor gets a session id")
}

func TestRequireAuth_LoadsPrincipal(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "/min-side", 1, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student", w.Body.String())
}

func TestSession_RoleChangeAppliesImmediately(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "/positions/new", 1, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)

	f.users[1].Role = models.RoleEmployee
	w = f.do(t, "/positions/new", 1, "")
	assert.Equal(t, http.StatusOK, w.Code, "the role is reloaded on every request")
}

func TestSession_DisabledOrDeletedUserIsAnonymous(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "/min-side", 3, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)

	delete(f.users, 2)
	req := httptest.NewRequest(http.MethodGet, "/min-side", nil)
	token, err := f.sessions.Issue(2, "employee", string(models.RoleEmployee))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token})
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRequireRole_RedirectsWithFlash(t *testing.T) {
	f := newFixture(t)
	sid := uuid.NewString()

	w := f.do(t, "/positions/new", 1, sid)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, DefaultPath, w.Header().Get("Location"))

	flashes, err := f.flashes.Pop(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, flashes, 1)
	assert.Equal(t, flash.KindError, flashes[0].Kind)

	w = f.do(t, "/positions/new", 2, sid)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuestOnly(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, "/login", 0, "").Code)

	w := f.do(t, "/login", 2, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, DefaultPath, w.Header().Get("Location"))
}

func TestSession_GarbageTokenIsCleared(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/min-side", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == AuthCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
