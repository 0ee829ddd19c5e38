package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/middleware"
	"github.com/yigit/jobportal/internal/pkg/flash"
)

// UserController handles the "min side" dashboard and the caller's profile
type UserController struct {
	userService      *services.UserService
	dashboardService *services.DashboardService
	authMiddleware   *middleware.AuthMiddleware
	logger           zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(
	userService *services.UserService,
	dashboardService *services.DashboardService,
	authMiddleware *middleware.AuthMiddleware,
	logger zerolog.Logger,
) *UserController {
	return &UserController{
		userService:      userService,
		dashboardService: dashboardService,
		authMiddleware:   authMiddleware,
		logger:           logger,
	}
}

// Dashboard shows the caller's page; its sections depend on the role
// @Summary Dashboard
// @Tags profile
// @Produce json
// @Success 200 {object} dto.PageResponse{data=dto.Dashboard}
// @Router /min-side [get]
func (c *UserController) Dashboard(ctx *gin.Context) {
	dashboard, err := c.dashboardService.Build(ctx.Request.Context(), middleware.CurrentPrincipal(ctx))
	if err != nil {
		middleware.HandleWebError(ctx, err, "/")
		return
	}
	middleware.RenderPage(ctx, http.StatusOK, dashboard)
}

// UpdateProfile changes full name and phone
// @Summary Update profile
// @Tags profile
// @Accept x-www-form-urlencoded
// @Param request formData dto.UpdateProfileRequest true "Profile"
// @Success 303 "Redirect to the dashboard"
// @Failure 422 {object} dto.FormErrorResponse
// @Router /min-side/update [post]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	p := middleware.CurrentPrincipal(ctx)
	if err := c.userService.UpdateProfile(ctx.Request.Context(), p.UserID, &req); err != nil {
		middleware.HandleWebError(ctx, err, dashboardPath)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Profile updated", dashboardPath)
}

// DeleteAccount deletes the caller's own account and signs them out
// @Summary Delete my account
// @Tags profile
// @Success 303 "Redirect to the home page"
// @Router /min-side/delete [post]
func (c *UserController) DeleteAccount(ctx *gin.Context) {
	if err := c.userService.DeleteSelf(ctx.Request.Context(), middleware.CurrentPrincipal(ctx)); err != nil {
		middleware.HandleWebError(ctx, err, dashboardPath)
		return
	}
	c.authMiddleware.SignOut(ctx)
	middleware.RedirectWithFlash(ctx, flash.KindInfo, "Your account and all of its data have been deleted", "/")
}
