package models

import "time"

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusReviewed ApplicationStatus = "reviewed"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

// Statuses lists every status in review order
var Statuses = []ApplicationStatus{StatusPending, StatusReviewed, StatusAccepted, StatusRejected}

// IsValid reports whether s is a known status
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Label is the human readable status
func (s ApplicationStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReviewed:
		return "Reviewed"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// Application links a user to a position with the chosen documents
type Application struct {
	ID                    int64             `json:"id" db:"id"`
	PositionID            int64             `json:"positionId" db:"position_id"`
	UserID                int64             `json:"userId" db:"user_id"`
	CVDocumentID          *int64            `json:"cvDocumentId,omitempty" db:"cv_document_id"`
	CoverLetterDocumentID *int64            `json:"coverLetterDocumentId,omitempty" db:"cover_letter_document_id"`
	Status                ApplicationStatus `json:"status" db:"status"`
	Notes                 *string           `json:"notes,omitempty" db:"notes"`
	ApplicationDate       time.Time         `json:"applicationDate" db:"application_date"`
}

// ApplicationDetail is an application joined with applicant, position and
// document names. Which joined fields are filled depends on the listing.
type ApplicationDetail struct {
	Application
	Username                string  `json:"username,omitempty"`
	FullName                *string `json:"fullName,omitempty"`
	Email                   string  `json:"email,omitempty"`
	Phone                   *string `json:"phone,omitempty"`
	PositionTitle           string  `json:"positionTitle,omitempty"`
	PositionDepartment      string  `json:"positionDepartment,omitempty"`
	PositionLocation        string  `json:"positionLocation,omitempty"`
	PositionCreatorID       int64   `json:"positionCreatorId,omitempty"`
	CVOriginalName          *string `json:"cvOriginalName,omitempty"`
	CoverLetterOriginalName *string `json:"coverLetterOriginalName,omitempty"`
}
