package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/jobportal/internal/app/auth"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/app/repositories"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/filestorage"
	"github.com/yigit/jobportal/internal/pkg/metrics"
)

// DocumentService defines the document store operations
type DocumentService interface {
	Upload(ctx context.Context, userID int64, file *multipart.FileHeader, docType models.DocumentType) (*models.Document, error)
	FindByID(ctx context.Context, documentID int64) (*models.Document, error)
	FindByUser(ctx context.Context, userID int64, docType *models.DocumentType) ([]*models.Document, error)
	DeleteByID(ctx context.Context, documentID, userID int64) error
	DeleteAllForUser(ctx context.Context, userID int64) error
	CanAccess(ctx context.Context, documentID int64, principal *appauth.Principal) (bool, error)
	Download(ctx context.Context, documentID int64, principal *appauth.Principal) (*DownloadFile, error)
	RemoveFiles(userID int64, paths []string, removeDir bool)
}

// DownloadFile is an opened stored document; the caller closes File
type DownloadFile struct {
	Document *models.Document
	File     *os.File
	Info     os.FileInfo
}

// documentServiceImpl implements DocumentService
type documentServiceImpl struct {
	repos   *repositories.Repositories
	storage filestorage.DocumentStorage
	authz   *appauth.AuthorizationService
	logger  zerolog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	repos *repositories.Repositories,
	storage filestorage.DocumentStorage,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) DocumentService {
	return &documentServiceImpl{
		repos:   repos,
		storage: storage,
		authz:   authz,
		logger:  logger,
	}
}

// rejectionReason labels an upload error for metrics
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return "size"
	case errors.Is(err, apperrors.ErrInvalidFileType):
		return "mime"
	case errors.Is(err, apperrors.ErrInvalidExtension):
		return "extension"
	case errors.Is(err, apperrors.ErrUploadFailed):
		return "transport"
	}
	return "storage"
}

// Upload validates and stores a file, then records it. When the insert
// fails the stored file is removed again.
func (s *documentServiceImpl) Upload(ctx context.Context, userID int64, file *multipart.FileHeader, docType models.DocumentType) (*models.Document, error) {
	if !docType.IsValid() {
		return nil, apperrors.ErrInvalidDocType
	}

	stored, err := s.storage.Store(file, userID, string(docType))
	if err != nil {
		metrics.UploadsRejectedTotal.WithLabelValues(rejectionReason(err)).Inc()
		s.logger.Info().Err(err).Int64("userID", userID).Str("type", string(docType)).Msg("Upload rejected")
		return nil, err
	}

	doc := &models.Document{
		UserID:       userID,
		Type:         docType,
		FilePath:     stored.Path,
		OriginalName: stored.OriginalName,
		MimeType:     stored.MimeType,
	}
	if err := s.repos.DocumentRepository.Create(ctx, doc); err != nil {
		if rmErr := s.storage.Remove(stored.Path); rmErr != nil {
			s.logger.Error().Err(rmErr).Str("path", stored.Path).Msg("Failed to remove file after insert failure")
		}
		metrics.UploadsRejectedTotal.WithLabelValues("storage").Inc()
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageFailure, err)
	}

	metrics.DocumentsUploadedTotal.WithLabelValues(string(docType)).Inc()
	s.logger.Info().Int64("userID", userID).Int64("documentID", doc.ID).Str("type", string(docType)).Msg("Document uploaded")
	return doc, nil
}

// FindByID returns a document by ID
func (s *documentServiceImpl) FindByID(ctx context.Context, documentID int64) (*models.Document, error) {
	return s.repos.DocumentRepository.FindByID(ctx, documentID)
}

// FindByUser lists the user's documents, optionally of one type
func (s *documentServiceImpl) FindByUser(ctx context.Context, userID int64, docType *models.DocumentType) ([]*models.Document, error) {
	return s.repos.DocumentRepository.FindByUser(ctx, userID, docType)
}

// DeleteByID removes a document owned by userID. The file goes first, best
// effort; the row is removed even if the file could not be.
func (s *documentServiceImpl) DeleteByID(ctx context.Context, documentID, userID int64) error {
	doc, err := s.repos.DocumentRepository.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UserID != userID {
		return apperrors.ErrDocumentNotFound
	}

	s.RemoveFiles(userID, []string{doc.FilePath}, false)

	if err := s.repos.DocumentRepository.Delete(ctx, documentID, userID); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", userID).Int64("documentID", documentID).Msg("Document deleted")
	return nil
}

// DeleteAllForUser removes every document of the user and their upload directory
func (s *documentServiceImpl) DeleteAllForUser(ctx context.Context, userID int64) error {
	paths, err := deleteDocumentRows(ctx, s.repos, userID)
	if err != nil {
		return err
	}
	s.RemoveFiles(userID, paths, true)
	return nil
}

// deleteDocumentRows deletes the user's document rows through repos (which
// may be bound to a transaction) and returns the file paths to clean up.
func deleteDocumentRows(ctx context.Context, repos *repositories.Repositories, userID int64) ([]string, error) {
	docs, err := repos.DocumentRepository.FindByUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	if _, err := repos.DocumentRepository.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.FilePath)
	}
	return paths, nil
}

// RemoveFiles deletes stored files best effort and, if asked, the user's
// now empty directory
func (s *documentServiceImpl) RemoveFiles(userID int64, paths []string, removeDir bool) {
	for _, p := range paths {
		if err := s.storage.Remove(p); err != nil {
			s.logger.Warn().Err(err).Int64("userID", userID).Str("path", p).Msg("Failed to remove document file")
		}
	}
	if removeDir {
		if err := s.storage.RemoveUserDir(userID); err != nil {
			s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to remove user upload directory")
		}
	}
}

// CanAccess applies the owner / admin / position creator rule
func (s *documentServiceImpl) CanAccess(ctx context.Context, documentID int64, principal *appauth.Principal) (bool, error) {
	doc, err := s.repos.DocumentRepository.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDocumentNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.authz.CanAccessDocument(ctx, principal, doc)
}

// Download opens a document the caller may read. Missing rows, denied access
// and files outside the uploads root all yield ErrDocumentNotFound.
func (s *documentServiceImpl) Download(ctx context.Context, documentID int64, principal *appauth.Principal) (*DownloadFile, error) {
	doc, err := s.repos.DocumentRepository.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.authz.CanAccessDocument(ctx, principal, doc)
	if err != nil {
		return nil, err
	}
	if !allowed {
		event := s.logger.Warn().Int64("documentID", documentID)
		if principal != nil {
			event = event.Int64("userID", principal.UserID)
		}
		event.Msg("Document access denied")
		return nil, apperrors.ErrDocumentNotFound
	}

	f, info, err := s.storage.Open(doc.FilePath)
	if err != nil {
		if errors.Is(err, apperrors.ErrPathOutsideUpload) {
			s.logger.Error().Int64("documentID", documentID).Msg("Stored document path escapes the uploads root")
		}
		return nil, apperrors.ErrDocumentNotFound
	}
	return &DownloadFile{Document: doc, File: f, Info: info}, nil
}
