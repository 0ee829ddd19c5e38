package dto

import "github.com/yigit/jobportal/internal/app/models"

// ApplyRequest chooses existing documents; files may also be uploaded in the
// same multipart form as cv_file and cover_letter_file.
type ApplyRequest struct {
	CVDocumentID          int64  `form:"cv_document_id" json:"cvDocumentId" binding:"omitempty,min=1"`
	CoverLetterDocumentID int64  `form:"cover_letter_document_id" json:"coverLetterDocumentId" binding:"omitempty,min=1"`
	Notes                 string `form:"notes" json:"notes"`
}

// UpdateStatusRequest changes an application's status and notes
type UpdateStatusRequest struct {
	Status string `form:"status" json:"status" binding:"required"`
	Notes  string `form:"notes" json:"notes"`
}

// ApplyPage lists the documents a student may attach
type ApplyPage struct {
	Position     *models.PositionListing `json:"position"`
	CVs          []*models.Document      `json:"cvs"`
	CoverLetters []*models.Document      `json:"coverLetters"`
}

// ApplicantsPage lists applications to one position
type ApplicantsPage struct {
	Position     *models.PositionListing     `json:"position"`
	Applications []*models.ApplicationDetail `json:"applications"`
	Statuses     []string                    `json:"statuses"`
}

// AdminApplicationsPage lists every application
type AdminApplicationsPage struct {
	Applications []*models.ApplicationDetail `json:"applications"`
	Pagination   PaginationInfo              `json:"pagination"`
}
