package filestorage

import (
	"mime/multipart"
	"os"
)

// StoredFile describes a file that was accepted and written under the uploads root
type StoredFile struct {
	Path         string // Path relative to the uploads root, slash separated
	OriginalName string // Client supplied filename
	MimeType     string // Sniffed MIME type
	Size         int64  // Size in bytes
}

// DocumentStorage defines the file operations the document store relies on
type DocumentStorage interface {
	// Store validates an upload and writes it under users/{userID}/
	Store(fileHeader *multipart.FileHeader, userID int64, docType string) (*StoredFile, error)

	// Open resolves a stored relative path inside the uploads root and opens it
	Open(relPath string) (*os.File, os.FileInfo, error)

	// Remove deletes a stored file; a missing file is not an error
	Remove(relPath string) error

	// RemoveUserDir removes the per-user directory if it is empty
	RemoveUserDir(userID int64) error
}
