package models

import "time"

// DocumentType is the kind of an uploaded document
type DocumentType string

const (
	DocumentTypeCV          DocumentType = "cv"
	DocumentTypeCoverLetter DocumentType = "cover_letter"
)

// IsValid reports whether t is a known document type
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeCV || t == DocumentTypeCoverLetter
}

// Label is the display name of the document type
func (t DocumentType) Label() string {
	if t == DocumentTypeCoverLetter {
		return "Cover letter"
	}
	return "CV"
}

// Document is an uploaded file owned by a user
type Document struct {
	ID           int64        `json:"id" db:"id"`
	UserID       int64        `json:"userId" db:"user_id"`
	Type         DocumentType `json:"type" db:"type"`
	FilePath     string       `json:"-" db:"file_path"` // relative to the uploads root
	OriginalName string       `json:"originalName" db:"original_name"`
	MimeType     string       `json:"mimeType" db:"mime_type"`
	UploadedAt   time.Time    `json:"uploadedAt" db:"uploaded_at"`
}
