package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/middleware"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

const (
	dashboardPath = "/min-side"
	positionsPath = "/positions"
)

// parseIDParam reads a positive integer path parameter. Anything else is
// reported as not found.
func parseIDParam(ctx *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrResourceNotFound
	}
	return id, nil
}

func positionPath(id int64) string {
	return positionsPath + "/" + strconv.FormatInt(id, 10)
}

// Pinger checks database connectivity
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HomeController serves the landing page and health check
type HomeController struct {
	positions *services.PositionService
	db        Pinger
	logger    zerolog.Logger
}

// NewHomeController creates a new HomeController
func NewHomeController(positions *services.PositionService, db Pinger, logger zerolog.Logger) *HomeController {
	return &HomeController{
		positions: positions,
		db:        db,
		logger:    logger,
	}
}

// Home is the landing page
// @Summary Landing page
// @Tags home
// @Produce json
// @Success 200 {object} dto.PageResponse{data=dto.HomePage}
// @Router / [get]
func (c *HomeController) Home(ctx *gin.Context) {
	count, err := c.positions.Count(ctx.Request.Context())
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to count positions")
	}
	middleware.RenderPage(ctx, http.StatusOK, dto.HomePage{PositionCount: count})
}

// Health reports whether the database answers
// @Summary Health check
// @Tags home
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /healthz [get]
func (c *HomeController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.db.PingContext(pingCtx); err != nil {
		c.logger.Error().Err(err).Msg("Health check failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "ok"})
}
