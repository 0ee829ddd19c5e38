package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/middleware"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/flash"
	"github.com/yigit/jobportal/internal/pkg/helpers"
)

const (
	adminUsersPath        = "/admin/users"
	adminApplicationsPath = "/admin/applications"
)

// AdminController handles user and application administration
type AdminController struct {
	userService        *services.UserService
	applicationService *services.ApplicationService
	logger             zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(userService *services.UserService, applicationService *services.ApplicationService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		userService:        userService,
		applicationService: applicationService,
		logger:             logger,
	}
}

// Users lists every user
// @Summary List users
// @Tags admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.PageResponse{data=dto.AdminUsersPage}
// @Router /admin/users [get]
func (c *AdminController) Users(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	users, total, err := c.userService.List(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), page, size)
	if err != nil {
		middleware.HandleWebError(ctx, err, dashboardPath)
		return
	}

	roles := make([]string, 0, len(models.Roles))
	for _, r := range models.Roles {
		roles = append(roles, string(r))
	}
	middleware.RenderPage(ctx, http.StatusOK, dto.AdminUsersPage{
		Users:      dto.NewUserViews(users),
		Roles:      roles,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	})
}

// UpdateRole changes a user's role
// @Summary Change a user's role
// @Description Leaving the student role deletes the user's applications and documents. An employee or admin made student loses their positions.
// @Tags admin
// @Accept x-www-form-urlencoded
// @Param id path int true "User ID"
// @Param role formData string true "student, employee or admin"
// @Success 303 "Redirect to the user list"
// @Router /admin/users/{id}/role [post]
func (c *AdminController) UpdateRole(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, apperrors.ErrUserNotFound, adminUsersPath)
		return
	}

	var req dto.UpdateRoleRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleWebError(ctx, apperrors.ErrInvalidRole, adminUsersPath)
		return
	}

	role := models.RoleType(req.Role)
	if err := c.userService.UpdateRole(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), id, role); err != nil {
		middleware.HandleWebError(ctx, err, adminUsersPath)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Role changed to "+role.Label(), adminUsersPath)
}

// DeleteUser deletes another user's account
// @Summary Delete a user
// @Tags admin
// @Param id path int true "User ID"
// @Success 303 "Redirect to the user list"
// @Router /admin/users/{id}/delete [post]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, apperrors.ErrUserNotFound, adminUsersPath)
		return
	}

	if err := c.userService.AdminDelete(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), id); err != nil {
		middleware.HandleWebError(ctx, err, adminUsersPath)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "User deleted", adminUsersPath)
}

// Applications lists every application
// @Summary List all applications
// @Tags admin
// @Produce json
// @Success 200 {object} dto.PageResponse{data=dto.AdminApplicationsPage}
// @Router /admin/applications [get]
func (c *AdminController) Applications(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	applications, total, err := c.applicationService.ListAll(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), page, size)
	if err != nil {
		middleware.HandleWebError(ctx, err, dashboardPath)
		return
	}
	middleware.RenderPage(ctx, http.StatusOK, dto.AdminApplicationsPage{
		Applications: applications,
		Pagination:   helpers.NewPaginationInfo(total, page, size),
	})
}

// DeleteApplication removes any application
// @Summary Delete an application
// @Tags admin
// @Param id path int true "Application ID"
// @Success 303 "Redirect to the application list"
// @Router /admin/applications/{id}/delete [post]
func (c *AdminController) DeleteApplication(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, apperrors.ErrApplicationNotFound, adminApplicationsPath)
		return
	}

	if err := c.applicationService.AdminDelete(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), id); err != nil {
		middleware.HandleWebError(ctx, err, adminApplicationsPath)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Application deleted", adminApplicationsPath)
}
