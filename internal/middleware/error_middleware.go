package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/jobportal/internal/app/models/dto"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/flash"
	"github.com/yigit/jobportal/internal/pkg/logger"
)

const genericErrorMessage = "Something went wrong. Please try again later."

// userMessages maps domain errors to what the user is told
var userMessages = []struct {
	err     error
	message string
}{
	{apperrors.ErrInvalidCredentials, "Invalid username/email or password"},
	{apperrors.ErrAccountLocked, "Your account is temporarily locked after too many failed attempts. Try again later or reset your password."},
	{apperrors.ErrAccountDisabled, "Your account is disabled"},
	{apperrors.ErrRateLimited, "Too many attempts. Please wait a moment and try again."},
	{apperrors.ErrInvalidPasswordResetToken, "The password reset link is invalid or has expired"},
	{apperrors.ErrUsernameTaken, "That username is already taken"},
	{apperrors.ErrEmailAlreadyExists, "An account with that email already exists"},
	{apperrors.ErrSelfRoleChange, "You cannot change your own role"},
	{apperrors.ErrSelfDelete, "You cannot delete your own account from the admin panel"},
	{apperrors.ErrInvalidRole, "Unknown role"},
	{apperrors.ErrAlreadyApplied, "You have already applied for this position"},
	{apperrors.ErrInvalidStatus, "Unknown application status"},
	{apperrors.ErrDocumentRequired, "Select or upload both a CV and a cover letter"},
	{apperrors.ErrFileTooLarge, "The file is too large (max 5 MB)"},
	{apperrors.ErrInvalidFileType, "Only PDF and Word documents are accepted"},
	{apperrors.ErrInvalidExtension, "The file must have a .pdf, .doc or .docx extension"},
	{apperrors.ErrInvalidDocType, "Unknown document type"},
	{apperrors.ErrNoFilesSubmitted, "No files were selected"},
	{apperrors.ErrUploadFailed, "The upload failed. Please try again."},
	{apperrors.ErrStorageFailure, "The file could not be saved. Please try again."},
	{apperrors.ErrUserNotFound, "User not found"},
	{apperrors.ErrPositionNotFound, "Position not found"},
	{apperrors.ErrApplicationNotFound, "Application not found"},
	{apperrors.ErrDocumentNotFound, "Document not found"},
	{apperrors.ErrResourceNotFound, "Not found"},
	{apperrors.ErrPermissionDenied, "You do not have permission to do that"},
	{apperrors.ErrNoChanges, "No changes were made"},
}

// UserMessage returns the message shown for err and whether err is a known
// domain error. Unknown errors get a generic message.
func UserMessage(err error) (string, bool) {
	if msg := apperrors.Message(err); msg != "" && !errors.Is(err, apperrors.ErrValidationFailed) {
		return msg, true
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.message, true
		}
	}
	return genericErrorMessage, false
}

// HandleWebError is the outer boundary of every form post: it flashes a
// message and redirects. Validation errors re-render the form as 422, and
// anonymous callers go to the login page.
func HandleWebError(c *gin.Context, err error, redirectTo string) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		c.Redirect(http.StatusSeeOther, LoginPath)
		return
	case errors.Is(err, apperrors.ErrValidationFailed):
		if fields := apperrors.FieldErrors(err); len(fields) > 0 {
			RespondFormErrors(c, fields)
			return
		}
	}

	msg, known := UserMessage(err)
	kind := flash.KindError
	switch {
	case !known:
		logger.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Unhandled error")
	case errors.Is(err, apperrors.ErrNoChanges):
		kind = flash.KindInfo
	}

	AddFlash(c, kind, msg)
	c.Redirect(http.StatusSeeOther, redirectTo)
}

// RedirectWithFlash flashes a message and redirects
func RedirectWithFlash(c *gin.Context, kind flash.Kind, message, to string) {
	AddFlash(c, kind, message)
	c.Redirect(http.StatusSeeOther, to)
}

// secretFields are never echoed back in a rejected form
var secretFields = map[string]bool{
	"password":         true,
	"password_confirm": true,
	"token":            true,
}

// RespondFormErrors answers a rejected form with its field messages and the
// submitted values, minus passwords.
func RespondFormErrors(c *gin.Context, fields map[string]string) {
	values := make(map[string]string)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		_ = c.Request.ParseForm()
	}
	for k, v := range c.Request.PostForm {
		if secretFields[strings.ToLower(k)] || len(v) == 0 {
			continue
		}
		values[k] = v[0]
	}

	c.JSON(http.StatusUnprocessableEntity, dto.FormErrorResponse{
		Message: "Please correct the highlighted fields",
		Errors:  fields,
		Values:  values,
	})
}

// HandleAPIError answers routes that cannot redirect (downloads, health)
// with a JSON error body
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
	case apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrDocumentNotFound, apperrors.ErrPositionNotFound, apperrors.ErrApplicationNotFound, apperrors.ErrUserNotFound):
		msg, _ := UserMessage(err)
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, msg)))
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")))
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}
