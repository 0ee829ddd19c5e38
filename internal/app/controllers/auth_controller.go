// Package controllers handles HTTP request handling
package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/middleware"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/flash"
	"github.com/yigit/jobportal/internal/pkg/ratelimit"
)

// AuthController handles login, registration and password resets
type AuthController struct {
	authService    *services.AuthService
	authMiddleware *middleware.AuthMiddleware
	limiter        ratelimit.Limiter
	logger         zerolog.Logger
}

// NewAuthController creates a new AuthController. A nil limiter allows every attempt.
func NewAuthController(authService *services.AuthService, authMiddleware *middleware.AuthMiddleware, limiter ratelimit.Limiter, logger zerolog.Logger) *AuthController {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	return &AuthController{
		authService:    authService,
		authMiddleware: authMiddleware,
		limiter:        limiter,
		logger:         logger,
	}
}

// LoginPage shows the login form
// @Summary Login page
// @Tags auth
// @Produce json
// @Success 200 {object} dto.PageResponse
// @Router /login [get]
func (c *AuthController) LoginPage(ctx *gin.Context) {
	middleware.RenderPage(ctx, http.StatusOK, nil)
}

// Login handles user login
// @Summary User login
// @Description Authenticates with a username or email and sets the session cookie. Three failed attempts lock the account for an hour.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param identifier formData string true "Username or email"
// @Param password formData string true "Password"
// @Success 303 "Redirect to the dashboard"
// @Failure 303 "Redirect back to the login page with an error flash"
// @Failure 422 {object} dto.FormErrorResponse "Missing fields"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	identifier := strings.ToLower(strings.TrimSpace(req.Identifier))
	if !c.limiter.Allow(ctx.Request.Context(), "login:ip:"+ctx.ClientIP()) ||
		!c.limiter.Allow(ctx.Request.Context(), "login:id:"+identifier) {
		c.logger.Warn().Str("clientIP", ctx.ClientIP()).Msg("Login rate limited")
		middleware.HandleWebError(ctx, apperrors.ErrRateLimited, middleware.LoginPath)
		return
	}

	user, err := c.authService.Authenticate(ctx.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		middleware.HandleWebError(ctx, err, middleware.LoginPath)
		return
	}

	if err := c.authMiddleware.SignIn(ctx, user); err != nil {
		c.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to issue session")
		middleware.HandleWebError(ctx, err, middleware.LoginPath)
		return
	}

	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Welcome back, "+user.DisplayName()+"!", dashboardPath)
}

// Logout clears the session cookie
// @Summary Logout
// @Tags auth
// @Success 303 "Redirect to the home page"
// @Router /logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	c.authMiddleware.SignOut(ctx)
	middleware.RedirectWithFlash(ctx, flash.KindInfo, "You have been logged out", "/")
}

// RegisterPage shows the registration form
// @Summary Registration page
// @Tags auth
// @Produce json
// @Success 200 {object} dto.PageResponse
// @Router /register [get]
func (c *AuthController) RegisterPage(ctx *gin.Context) {
	middleware.RenderPage(ctx, http.StatusOK, nil)
}

// Register handles student registration
// @Summary Register a new student account
// @Description Usernames may contain letters, digits, underscores, hyphens and the configured diacritics. Passwords need 8 characters, upper and lower case letters and two digits.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param request formData dto.RegisterRequest true "Registration form"
// @Success 303 "Redirect to the login page"
// @Failure 422 {object} dto.FormErrorResponse "Invalid fields, taken username or email"
// @Router /register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUsernameTaken):
			msg, _ := middleware.UserMessage(err)
			middleware.RespondFormErrors(ctx, map[string]string{"username": msg})
		case errors.Is(err, apperrors.ErrEmailAlreadyExists):
			msg, _ := middleware.UserMessage(err)
			middleware.RespondFormErrors(ctx, map[string]string{"email": msg})
		default:
			middleware.HandleWebError(ctx, err, "/register")
		}
		return
	}

	c.logger.Info().Int64("userID", user.ID).Msg("Registration completed")
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Registration complete. You can now log in.", middleware.LoginPath)
}

// ForgotPasswordPage shows the reset request form
// @Summary Forgot password page
// @Tags auth
// @Produce json
// @Success 200 {object} dto.PageResponse
// @Router /password/forgot [get]
func (c *AuthController) ForgotPasswordPage(ctx *gin.Context) {
	middleware.RenderPage(ctx, http.StatusOK, nil)
}

// ForgotPassword starts a password reset. The answer is the same whether or
// not the address belongs to an account.
// @Summary Request a password reset link
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param email formData string true "Account email"
// @Success 303 "Redirect to the login page"
// @Router /password/forgot [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	if !c.limiter.Allow(ctx.Request.Context(), "reset:ip:"+ctx.ClientIP()) {
		middleware.HandleWebError(ctx, apperrors.ErrRateLimited, "/password/forgot")
		return
	}

	if err := c.authService.RequestPasswordReset(ctx.Request.Context(), req.Email); err != nil {
		c.logger.Error().Err(err).Msg("Password reset request failed")
	}
	middleware.RedirectWithFlash(ctx, flash.KindInfo,
		"If an account exists for that email address, a password reset link has been sent.",
		middleware.LoginPath)
}

// ResetPasswordPage checks the token from the emailed link
// @Summary Password reset page
// @Tags auth
// @Produce json
// @Param token query string true "Reset token"
// @Success 200 {object} dto.PageResponse{data=dto.ResetPasswordPage}
// @Router /password/reset [get]
func (c *AuthController) ResetPasswordPage(ctx *gin.Context) {
	token := ctx.Query("token")
	page := dto.ResetPasswordPage{Token: token}
	if err := c.authService.ValidateResetToken(ctx.Request.Context(), token); err == nil {
		page.Valid = true
	} else if !errors.Is(err, apperrors.ErrInvalidPasswordResetToken) {
		c.logger.Error().Err(err).Msg("Failed to validate reset token")
	}
	middleware.RenderPage(ctx, http.StatusOK, page)
}

// ResetPassword sets a new password with a valid reset token
// @Summary Confirm a password reset
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param request formData dto.ResetPasswordRequest true "Reset form"
// @Success 303 "Redirect to the login page"
// @Failure 422 {object} dto.FormErrorResponse "Weak or mismatched password"
// @Router /password/reset [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	if err := c.authService.ConfirmPasswordReset(ctx.Request.Context(), req.Token, req.Password); err != nil {
		redirect := "/password/reset?token=" + url.QueryEscape(req.Token)
		if errors.Is(err, apperrors.ErrInvalidPasswordResetToken) {
			redirect = "/password/forgot"
		}
		middleware.HandleWebError(ctx, err, redirect)
		return
	}

	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Your password has been changed. You can now log in.", middleware.LoginPath)
}
