package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/middleware"
	"github.com/yigit/jobportal/internal/pkg/flash"
	"github.com/yigit/jobportal/internal/pkg/helpers"
	"github.com/yigit/jobportal/internal/pkg/validation"
)

// PositionController handles job postings
type PositionController struct {
	positions    *services.PositionService
	applications *services.ApplicationService
	logger       zerolog.Logger
}

// NewPositionController creates a new PositionController
func NewPositionController(positions *services.PositionService, applications *services.ApplicationService, logger zerolog.Logger) *PositionController {
	return &PositionController{
		positions:    positions,
		applications: applications,
		logger:       logger,
	}
}

// List shows positions newest first
// @Summary List positions
// @Tags positions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.PageResponse{data=dto.PositionListPage}
// @Router /positions [get]
func (c *PositionController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	positions, total, err := c.positions.ListAll(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleWebError(ctx, err, "/")
		return
	}

	middleware.RenderPage(ctx, http.StatusOK, dto.PositionListPage{
		Positions:  positions,
		Pagination: helpers.NewPaginationInfo(total, page, size),
		CanCreate:  middleware.CurrentPrincipal(ctx).CanManagePositions(),
	})
}

// Detail shows one position
// @Summary Position details
// @Tags positions
// @Produce json
// @Param id path int true "Position ID"
// @Success 200 {object} dto.PageResponse{data=dto.PositionDetailPage}
// @Router /positions/{id} [get]
func (c *PositionController) Detail(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}

	position, err := c.positions.FindByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}

	p := middleware.CurrentPrincipal(ctx)
	page := dto.PositionDetailPage{
		Position:  position,
		CanManage: appauth.CanManagePosition(p, &position.Position),
		CanApply:  p.IsStudent() || p.IsAdmin(),
	}
	if page.CanApply {
		page.HasApplied, err = c.applications.HasApplied(ctx.Request.Context(), id, p.UserID)
		if err != nil {
			middleware.HandleWebError(ctx, err, positionsPath)
			return
		}
		page.CanApply = !page.HasApplied
	}
	middleware.RenderPage(ctx, http.StatusOK, page)
}

// NewForm shows the empty create form
// @Summary New position form
// @Tags positions
// @Produce json
// @Success 200 {object} dto.PageResponse{data=dto.PositionFormPage}
// @Router /positions/new [get]
func (c *PositionController) NewForm(ctx *gin.Context) {
	middleware.RenderPage(ctx, http.StatusOK, dto.PositionFormPage{
		AmountMin: validation.PositionAmountMin,
		AmountMax: validation.PositionAmountMax,
	})
}

// Create publishes a position
// @Summary Create a position
// @Tags positions
// @Accept x-www-form-urlencoded
// @Param request formData dto.PositionRequest true "Position"
// @Success 303 "Redirect to the new position"
// @Failure 422 {object} dto.FormErrorResponse
// @Router /positions/new [post]
func (c *PositionController) Create(ctx *gin.Context) {
	var req dto.PositionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	position, err := c.positions.Create(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), &req)
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath+"/new")
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Position created", positionPath(position.ID))
}

// Update edits a position
// @Summary Edit a position
// @Description Submitting unchanged values reports "No changes were made" and writes nothing.
// @Tags positions
// @Accept x-www-form-urlencoded
// @Param id path int true "Position ID"
// @Param request formData dto.PositionRequest true "Position"
// @Success 303 "Redirect to the position"
// @Failure 422 {object} dto.FormErrorResponse
// @Router /positions/{id}/edit [post]
func (c *PositionController) Update(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}

	var req dto.PositionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	if err := c.positions.Update(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), id, &req); err != nil {
		middleware.HandleWebError(ctx, err, positionPath(id))
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Position updated", positionPath(id))
}

// Delete removes a position and its applications
// @Summary Delete a position
// @Tags positions
// @Param id path int true "Position ID"
// @Success 303 "Redirect to the position list"
// @Router /positions/{id}/delete [post]
func (c *PositionController) Delete(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}

	if err := c.positions.Delete(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), id); err != nil {
		middleware.HandleWebError(ctx, err, positionPath(id))
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Position deleted", positionsPath)
}
