package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
	"github.com/yigit/jobportal/internal/pkg/logger"
)

// DefaultMaxUploadSize is the upload size limit (5MB)
const DefaultMaxUploadSize int64 = 5 * 1024 * 1024

// AllowedUploadMimeTypes are the sniffed types accepted for documents
var AllowedUploadMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// AllowedExtensions are the filename extensions accepted for documents
var AllowedExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
}

const timestampLayout = "20060102_150405"

// LocalStorage keeps uploaded documents on the local filesystem.
type LocalStorage struct {
	root    string // canonical absolute uploads root
	maxSize int64
	now     func() time.Time
}

// NewLocalStorage creates the uploads root if needed and canonicalises it.
func NewLocalStorage(basePath string, maxSize int64) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	logger.Info().Str("path", root).Msg("Local storage directory ensured")

	return &LocalStorage{
		root:    root,
		maxSize: maxSize,
		now:     time.Now,
	}, nil
}

// Root returns the canonical uploads root
func (ls *LocalStorage) Root() string {
	return ls.root
}

// Store validates the upload (transport, size, sniffed type, extension) and
// only then writes it to users/{userID}/{type}_{timestamp}.{ext}.
func (ls *LocalStorage) Store(fileHeader *multipart.FileHeader, userID int64, docType string) (*StoredFile, error) {
	if fileHeader == nil {
		return nil, apperrors.ErrUploadFailed
	}

	if fileHeader.Size > ls.maxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Warn().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUploadFailed, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, ls.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUploadFailed, err)
	}
	if int64(len(data)) > ls.maxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	mimeType, ok := SniffAllowed(data)
	if !ok {
		return nil, apperrors.ErrInvalidFileType
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	if !AllowedExtensions[ext] {
		return nil, apperrors.ErrInvalidExtension
	}

	userDir := path.Join("users", strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(filepath.Join(ls.root, filepath.FromSlash(userDir)), 0o755); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Failed to create upload directory")
		return nil, fmt.Errorf("%w: failed to create upload directory: %v", apperrors.ErrStorageFailure, err)
	}

	relPath, err := ls.writeUnique(userDir, docType, ext, data)
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("userID", userID).Str("path", relPath).Str("mime", mimeType).Msg("File saved successfully")
	return &StoredFile{
		Path:         relPath,
		OriginalName: filepath.Base(fileHeader.Filename),
		MimeType:     mimeType,
		Size:         int64(len(data)),
	}, nil
}

// writeUnique creates the target with O_EXCL so two uploads in the same
// second never overwrite each other.
func (ls *LocalStorage) writeUnique(userDir, docType, ext string, data []byte) (string, error) {
	stamp := ls.now().Format(timestampLayout)
	for attempt := 0; attempt < 100; attempt++ {
		name := fmt.Sprintf("%s_%s.%s", docType, stamp, ext)
		if attempt > 0 {
			name = fmt.Sprintf("%s_%s_%d.%s", docType, stamp, attempt, ext)
		}
		relPath := path.Join(userDir, name)
		fullPath := filepath.Join(ls.root, filepath.FromSlash(relPath))

		dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: failed to create destination file: %v", apperrors.ErrStorageFailure, err)
		}

		_, werr := dst.Write(data)
		cerr := dst.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(fullPath)
			return "", fmt.Errorf("%w: failed to save file content: %v", apperrors.ErrStorageFailure, errors.Join(werr, cerr))
		}
		return relPath, nil
	}
	return "", fmt.Errorf("%w: could not allocate a unique filename", apperrors.ErrStorageFailure)
}

// SniffAllowed detects the content type from the bytes themselves and
// reports whether it is an accepted document type.
func SniffAllowed(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for _, allowed := range AllowedUploadMimeTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return detected.String(), false
}

// Resolve canonicalises relPath and verifies it stays inside the uploads
// root. Anything else, including a missing file, is reported as not found.
func (ls *LocalStorage) Resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", apperrors.ErrResourceNotFound
	}

	joined := filepath.Join(ls.root, filepath.FromSlash(relPath))
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", apperrors.ErrResourceNotFound
	}
	if !ls.contains(resolved) {
		logger.Warn().Str("path", relPath).Msg("Rejected path outside uploads root")
		return "", fmt.Errorf("%w: %w", apperrors.ErrResourceNotFound, apperrors.ErrPathOutsideUpload)
	}
	return resolved, nil
}

func (ls *LocalStorage) contains(p string) bool {
	rel, err := filepath.Rel(ls.root, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Open resolves relPath and opens the regular file behind it
func (ls *LocalStorage) Open(relPath string) (*os.File, os.FileInfo, error) {
	fullPath, err := ls.Resolve(relPath)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, nil, apperrors.ErrResourceNotFound
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, apperrors.ErrResourceNotFound
	}
	return f, info, nil
}

// Remove deletes a stored file. Returns nil if the file doesn't exist.
func (ls *LocalStorage) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}

	fullPath, err := ls.Resolve(relPath)
	if err != nil {
		if errors.Is(err, apperrors.ErrPathOutsideUpload) {
			return err
		}
		logger.Warn().Str("path", relPath).Msg("File to delete does not exist")
		return nil
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		logger.Error().Err(err).Str("path", relPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", relPath).Msg("File deleted successfully")
	return nil
}

// RemoveUserDir removes users/{userID} when it is empty; a non-empty or
// missing directory is left alone.
func (ls *LocalStorage) RemoveUserDir(userID int64) error {
	dir := filepath.Join(ls.root, "users", strconv.FormatInt(userID, 10))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.Remove(dir)
}
