package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/auth"
	"github.com/yigit/jobportal/internal/pkg/flash"
	"github.com/yigit/jobportal/internal/pkg/logger"
)

// Cookie names and redirect targets
const (
	SessionCookie = "sid"
	AuthCookie    = "auth"

	LoginPath   = "/login"
	DefaultPath = "/positions"
)

// Context keys set by the session middleware
const (
	sessionIDKey  = "sessionID"
	principalKey  = "principal"
	flashStoreKey = "flashStore"
)

// UserLoader reloads the signed-in user on every request
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware resolves the session and the signed-in user
type AuthMiddleware struct {
	sessions     *auth.SessionService
	users        UserLoader
	flashes      flash.Store
	cookieSecure bool
	logger       zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions *auth.SessionService, users UserLoader, flashes flash.Store, cookieSecure bool, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:     sessions,
		users:        users,
		flashes:      flashes,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Session assigns a session id to every visitor and, when the auth cookie is
// valid and its user still exists, puts the Principal into the request context.
func (m *AuthMiddleware) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
			m.setCookie(c, SessionCookie, sid, 0)
		}
		c.Set(sessionIDKey, sid)
		c.Set(flashStoreKey, m.flashes)

		if token, err := c.Cookie(AuthCookie); err == nil && token != "" {
			if p := m.resolvePrincipal(c, token); p != nil {
				c.Set(principalKey, p)
				c.Request = c.Request.WithContext(appauth.WithPrincipal(c.Request.Context(), p))
			} else {
				m.setCookie(c, AuthCookie, "", -1)
			}
		}

		c.Next()
	}
}

// resolvePrincipal verifies the token and reloads the user so that role
// changes and deletions apply from the next request on
func (m *AuthMiddleware) resolvePrincipal(c *gin.Context, token string) *appauth.Principal {
	claims, err := m.sessions.Parse(token)
	if err != nil {
		if !errors.Is(err, auth.ErrExpiredToken) {
			m.logger.Debug().Err(err).Msg("Discarding invalid session token")
		}
		return nil
	}

	user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			m.logger.Error().Err(err).Int64("userID", claims.UserID).Msg("Failed to load session user")
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}

	return &appauth.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

// SignIn issues the auth cookie for user
func (m *AuthMiddleware) SignIn(c *gin.Context, user *models.User) error {
	token, err := m.sessions.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		return err
	}
	m.setCookie(c, AuthCookie, token, int(m.sessions.TTL().Seconds()))
	return nil
}

// SignOut clears the auth cookie; the session id and its flashes survive
func (m *AuthMiddleware) SignOut(c *gin.Context) {
	m.setCookie(c, AuthCookie, "", -1)
}

func (m *AuthMiddleware) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", m.cookieSecure, true)
}

// RequireAuth redirects anonymous callers to the login page
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole lets through callers holding one of roles; others are sent to
// the positions page with an error flash
func (m *AuthMiddleware) RequireRole(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}

		m.logger.Warn().Int64("userID", p.UserID).Str("role", string(p.Role)).Str("path", c.Request.URL.Path).Msg("Role check failed")
		AddFlash(c, flash.KindError, "You do not have access to that page")
		c.Redirect(http.StatusSeeOther, DefaultPath)
		c.Abort()
	}
}

// GuestOnly keeps signed-in users away from login and registration
func (m *AuthMiddleware) GuestOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) != nil {
			c.Redirect(http.StatusSeeOther, DefaultPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the signed-in user of the request, or nil
func CurrentPrincipal(c *gin.Context) *appauth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*appauth.Principal)
	return p
}

// SessionID returns the visitor's session id
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

func flashStore(c *gin.Context) flash.Store {
	v, ok := c.Get(flashStoreKey)
	if !ok {
		return nil
	}
	store, _ := v.(flash.Store)
	return store
}

// AddFlash queues a message for the next rendered page
func AddFlash(c *gin.Context, kind flash.Kind, message string) {
	store := flashStore(c)
	if store == nil {
		return
	}
	if err := store.Put(c.Request.Context(), SessionID(c), flash.Flash{Kind: kind, Message: message}); err != nil {
		logger.Warn().Err(err).Msg("Failed to store flash message")
	}
}

// PopFlashes returns and clears the pending messages of the session
func PopFlashes(c *gin.Context) []flash.Flash {
	store := flashStore(c)
	if store == nil {
		return nil
	}
	flashes, err := store.Pop(c.Request.Context(), SessionID(c))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read flash messages")
		return nil
	}
	return flashes
}
