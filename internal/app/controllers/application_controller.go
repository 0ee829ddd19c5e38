package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/middleware"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/flash"
)

// ApplicationController handles applying and reviewing applications
type ApplicationController struct {
	applications *services.ApplicationService
	positions    *services.PositionService
	documents    services.DocumentService
	logger       zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(
	applications *services.ApplicationService,
	positions *services.PositionService,
	documents services.DocumentService,
	logger zerolog.Logger,
) *ApplicationController {
	return &ApplicationController{
		applications: applications,
		positions:    positions,
		documents:    documents,
		logger:       logger,
	}
}

func statusNames() []string {
	out := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		out = append(out, string(s))
	}
	return out
}

// ApplyPage lists the caller's documents for the apply form
// @Summary Apply form
// @Tags applications
// @Produce json
// @Param id path int true "Position ID"
// @Success 200 {object} dto.PageResponse{data=dto.ApplyPage}
// @Router /positions/{id}/apply [get]
func (c *ApplicationController) ApplyPage(ctx *gin.Context) {
	positionID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}
	p := middleware.CurrentPrincipal(ctx)

	position, err := c.positions.FindByID(ctx.Request.Context(), positionID)
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}

	applied, err := c.applications.HasApplied(ctx.Request.Context(), positionID, p.UserID)
	if err != nil {
		middleware.HandleWebError(ctx, err, positionPath(positionID))
		return
	}
	if applied {
		middleware.HandleWebError(ctx, apperrors.ErrAlreadyApplied, positionPath(positionID))
		return
	}

	cvType, coverType := models.DocumentTypeCV, models.DocumentTypeCoverLetter
	cvs, err := c.documents.FindByUser(ctx.Request.Context(), p.UserID, &cvType)
	if err != nil {
		middleware.HandleWebError(ctx, err, positionPath(positionID))
		return
	}
	covers, err := c.documents.FindByUser(ctx.Request.Context(), p.UserID, &coverType)
	if err != nil {
		middleware.HandleWebError(ctx, err, positionPath(positionID))
		return
	}

	middleware.RenderPage(ctx, http.StatusOK, dto.ApplyPage{
		Position:     position,
		CVs:          cvs,
		CoverLetters: covers,
	})
}

// Apply submits an application with chosen or freshly uploaded documents
// @Summary Apply for a position
// @Description Pick existing documents by id or upload cv_file / cover_letter_file in the same form. A second application to the same position is refused.
// @Tags applications
// @Accept multipart/form-data
// @Param id path int true "Position ID"
// @Param cv_document_id formData int false "Existing CV"
// @Param cover_letter_document_id formData int false "Existing cover letter"
// @Param cv_file formData file false "New CV"
// @Param cover_letter_file formData file false "New cover letter"
// @Param notes formData string false "Notes to the employer"
// @Success 303 "Redirect to the dashboard"
// @Router /positions/{id}/apply [post]
func (c *ApplicationController) Apply(ctx *gin.Context) {
	positionID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}
	applyPath := positionPath(positionID) + "/apply"

	var req dto.ApplyRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	p := middleware.CurrentPrincipal(ctx)
	in := services.ApplyInput{
		CVDocumentID:          req.CVDocumentID,
		CoverLetterDocumentID: req.CoverLetterDocumentID,
		Notes:                 req.Notes,
	}

	cv, err := uploadIfPresent(ctx, c.documents, "cv_file", p.UserID, models.DocumentTypeCV)
	if err != nil {
		middleware.HandleWebError(ctx, err, applyPath)
		return
	}
	if cv != nil {
		in.CVDocumentID = cv.ID
	}
	cover, err := uploadIfPresent(ctx, c.documents, "cover_letter_file", p.UserID, models.DocumentTypeCoverLetter)
	if err != nil {
		middleware.HandleWebError(ctx, err, applyPath)
		return
	}
	if cover != nil {
		in.CoverLetterDocumentID = cover.ID
	}

	if _, err := c.applications.Apply(ctx.Request.Context(), p, positionID, in); err != nil {
		redirect := applyPath
		if errors.Is(err, apperrors.ErrAlreadyApplied) || errors.Is(err, apperrors.ErrPositionNotFound) {
			redirect = positionPath(positionID)
		}
		middleware.HandleWebError(ctx, err, redirect)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Your application has been submitted", dashboardPath)
}

// Applicants lists the applications to a position the caller manages
// @Summary Applicants of a position
// @Tags applications
// @Produce json
// @Param id path int true "Position ID"
// @Success 200 {object} dto.PageResponse{data=dto.ApplicantsPage}
// @Router /positions/{id}/applicants [get]
func (c *ApplicationController) Applicants(ctx *gin.Context) {
	positionID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}

	position, applications, err := c.applications.ListByPosition(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), positionID)
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}
	middleware.RenderPage(ctx, http.StatusOK, dto.ApplicantsPage{
		Position:     position,
		Applications: applications,
		Statuses:     statusNames(),
	})
}

// UpdateStatus reviews an application
// @Summary Update application status
// @Tags applications
// @Accept x-www-form-urlencoded
// @Param id path int true "Position ID"
// @Param applicationId path int true "Application ID"
// @Param status formData string true "pending, reviewed, accepted or rejected"
// @Param notes formData string false "Notes (markup is stripped, max 1000 characters)"
// @Success 303 "Redirect to the applicants page"
// @Router /positions/{id}/applications/{applicationId}/status [post]
func (c *ApplicationController) UpdateStatus(ctx *gin.Context) {
	positionID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, err, positionsPath)
		return
	}
	applicantsPath := positionPath(positionID) + "/applicants"

	applicationID, err := parseIDParam(ctx, "applicationId")
	if err != nil {
		middleware.HandleWebError(ctx, apperrors.ErrApplicationNotFound, applicantsPath)
		return
	}

	var req dto.UpdateStatusRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.RespondFormErrors(ctx, middleware.BindingErrors(err))
		return
	}

	status := models.ApplicationStatus(req.Status)
	if err := c.applications.UpdateStatus(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), positionID, applicationID, status, req.Notes); err != nil {
		middleware.HandleWebError(ctx, err, applicantsPath)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Application marked as "+status.Label(), applicantsPath)
}

// Withdraw deletes the caller's own application
// @Summary Withdraw an application
// @Tags applications
// @Param id path int true "Application ID"
// @Success 303 "Redirect to the dashboard"
// @Router /applications/{id}/withdraw [post]
func (c *ApplicationController) Withdraw(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, apperrors.ErrApplicationNotFound, dashboardPath)
		return
	}

	if err := c.applications.Withdraw(ctx.Request.Context(), middleware.CurrentPrincipal(ctx), id); err != nil {
		middleware.HandleWebError(ctx, err, dashboardPath)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Your application has been withdrawn", dashboardPath)
}
