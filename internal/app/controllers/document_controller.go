package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/middleware"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/flash"
)

// Upload form fields, one per document type
var uploadFields = []struct {
	field   string
	docType models.DocumentType
}{
	{"cv_file", models.DocumentTypeCV},
	{"cover_letter_file", models.DocumentTypeCoverLetter},
}

// downloadContentTypes are served with their own Content-Type; anything else
// is sent as application/octet-stream
var downloadContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"text/plain": true,
}

// uploadIfPresent stores the file posted under field, if any
func uploadIfPresent(ctx *gin.Context, documents services.DocumentService, field string, userID int64, docType models.DocumentType) (*models.Document, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUploadFailed, err)
	}
	return documents.Upload(ctx.Request.Context(), userID, fh, docType)
}

// asciiFilename keeps printable ASCII for the plain filename parameter
func asciiFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '"' || r == '\\' || r == '/':
			b.WriteRune('_')
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

// contentDisposition builds an attachment header with an ASCII fallback and
// the UTF-8 name per RFC 5987
func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, asciiFilename(name), url.PathEscape(name))
}

// DocumentController handles CV and cover letter files
type DocumentController struct {
	documents services.DocumentService
	logger    zerolog.Logger
}

// NewDocumentController creates a new DocumentController
func NewDocumentController(documents services.DocumentService, logger zerolog.Logger) *DocumentController {
	return &DocumentController{
		documents: documents,
		logger:    logger,
	}
}

// Upload stores the posted cv_file and cover_letter_file independently and
// reports which of them succeeded
// @Summary Upload documents
// @Tags documents
// @Accept multipart/form-data
// @Param cv_file formData file false "CV (pdf, doc, docx; max 5 MB)"
// @Param cover_letter_file formData file false "Cover letter (pdf, doc, docx; max 5 MB)"
// @Success 303 "Redirect to the dashboard"
// @Router /documents/upload [post]
func (c *DocumentController) Upload(ctx *gin.Context) {
	p := middleware.CurrentPrincipal(ctx)

	var (
		stored   []string
		failures []string
	)
	for _, f := range uploadFields {
		doc, err := uploadIfPresent(ctx, c.documents, f.field, p.UserID, f.docType)
		if err != nil {
			msg, known := middleware.UserMessage(err)
			if !known {
				c.logger.Error().Err(err).Int64("userID", p.UserID).Str("field", f.field).Msg("Upload failed")
			}
			failures = append(failures, f.docType.Label()+": "+msg)
			continue
		}
		if doc != nil {
			stored = append(stored, f.docType.Label())
		}
	}

	switch {
	case len(stored) == 0 && len(failures) == 0:
		middleware.HandleWebError(ctx, apperrors.ErrNoFilesSubmitted, dashboardPath)
		return
	case len(failures) == 0:
		middleware.AddFlash(ctx, flash.KindSuccess, strings.Join(stored, " and ")+" uploaded")
	default:
		if len(stored) > 0 {
			middleware.AddFlash(ctx, flash.KindSuccess, strings.Join(stored, " and ")+" uploaded")
		}
		middleware.AddFlash(ctx, flash.KindError, strings.Join(failures, "; "))
	}
	ctx.Redirect(http.StatusSeeOther, dashboardPath)
}

// Delete removes one of the caller's documents
// @Summary Delete a document
// @Tags documents
// @Param id path int true "Document ID"
// @Success 303 "Redirect to the dashboard"
// @Router /documents/{id}/delete [post]
func (c *DocumentController) Delete(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleWebError(ctx, apperrors.ErrDocumentNotFound, dashboardPath)
		return
	}

	p := middleware.CurrentPrincipal(ctx)
	if err := c.documents.DeleteByID(ctx.Request.Context(), id, p.UserID); err != nil {
		middleware.HandleWebError(ctx, err, dashboardPath)
		return
	}
	middleware.RedirectWithFlash(ctx, flash.KindSuccess, "Document deleted", dashboardPath)
}

// Download streams a document to its owner, an admin, or the creator of a
// position it was sent to. Everything else is a 404.
// @Summary Download a document
// @Tags documents
// @Produce octet-stream
// @Param id path int true "Document ID"
// @Success 200 {file} file
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{id}/download [get]
func (c *DocumentController) Download(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.ErrDocumentNotFound)
		return
	}

	file, err := c.documents.Download(ctx.Request.Context(), id, middleware.CurrentPrincipal(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.File.Close()

	contentType := file.Document.MimeType
	if !downloadContentTypes[contentType] {
		contentType = "application/octet-stream"
	}

	ctx.DataFromReader(http.StatusOK, file.Info.Size(), contentType, file.File, map[string]string{
		"Content-Disposition": contentDisposition(file.Document.OriginalName),
		"Cache-Control":       "no-cache, must-revalidate",
		"Pragma":              "no-cache",
	})
}
