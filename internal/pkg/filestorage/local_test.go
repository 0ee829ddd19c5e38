package filestorage

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/jobportal/internal/pkg/apperrors"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// fileHeader builds a real multipart.FileHeader the way net/http would
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("cv_file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["cv_file"][0]
}

func newStorage(t *testing.T) *LocalStorage {
	t.Helper()
	ls, err := NewLocalStorage(t.TempDir(), 1024)
	require.NoError(t, err)
	return ls
}

func TestStore_AcceptsPDF(t *testing.T) {
	ls := newStorage(t)
	ls.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	stored, err := ls.Store(fileHeader(t, "Min CV.pdf", samplePDF), 7, "cv")
	require.NoError(t, err)
	assert.Equal(t, "users/7/cv_20250102_030405.pdf", stored.Path)
	assert.Equal(t, "Min CV.pdf", stored.OriginalName)
	assert.Equal(t, "application/pdf", stored.MimeType)

	f, info, err := ls.Open(stored.Path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(len(samplePDF)), info.Size())
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)
}

func TestStore_SameSecondDoesNotOverwrite(t *testing.T) {
	ls := newStorage(t)
	ls.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	first, err := ls.Store(fileHeader(t, "a.pdf", samplePDF), 7, "cv")
	require.NoError(t, err)
	second, err := ls.Store(fileHeader(t, "b.pdf", samplePDF), 7, "cv")
	require.NoError(t, err)
	assert.NotEqual(t, first.Path, second.Path)
}

func TestStore_RejectsDisguisedFile(t *testing.T) {
	ls := newStorage(t)

	_, err := ls.Store(fileHeader(t, "cv.pdf", []byte("just some plain text pretending to be a pdf")), 7, "cv")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)

	entries, _ := os.ReadDir(filepath.Join(ls.Root(), "users"))
	assert.Empty(t, entries, "nothing is written for a rejected upload")
}

func TestStore_RejectsWrongExtension(t *testing.T) {
	ls := newStorage(t)

	_, err := ls.Store(fileHeader(t, "cv.exe", samplePDF), 7, "cv")
	assert.ErrorIs(t, err, apperrors.ErrInvalidExtension)
}

func TestStore_RejectsOversizedFile(t *testing.T) {
	ls := newStorage(t)
	big := append(append([]byte{}, samplePDF...), []byte(strings.Repeat("x", 2048))...)

	_, err := ls.Store(fileHeader(t, "cv.pdf", big), 7, "cv")
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
}

func TestOpen_RejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "uploads")
	ls, err := NewLocalStorage(root, 1024)
	require.NoError(t, err)

	secret := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("top secret"), 0o600))

	_, _, err = ls.Open("../secret.txt")
	assert.ErrorIs(t, err, apperrors.ErrPathOutsideUpload)

	_, _, err = ls.Open("users/1/missing.pdf")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrPathOutsideUpload)
}

func TestOpen_RejectsSymlinkOut(t *testing.T) {
	parent := t.TempDir()
	ls, err := NewLocalStorage(filepath.Join(parent, "uploads"), 1024)
	require.NoError(t, err)

	secret := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("top secret"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(ls.Root(), "users", "1"), 0o755))
	if err := os.Symlink(secret, filepath.Join(ls.Root(), "users", "1", "cv.pdf")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, _, err = ls.Open("users/1/cv.pdf")
	assert.ErrorIs(t, err, apperrors.ErrPathOutsideUpload)
}

func TestRemoveAndRemoveUserDir(t *testing.T) {
	ls := newStorage(t)

	stored, err := ls.Store(fileHeader(t, "cv.pdf", samplePDF), 9, "cv")
	require.NoError(t, err)

	require.NoError(t, ls.Remove(stored.Path))
	require.NoError(t, ls.Remove(stored.Path), "removing a missing file is not an error")
	require.NoError(t, ls.RemoveUserDir(9))

	_, err = os.Stat(filepath.Join(ls.Root(), "users", "9"))
	assert.True(t, os.IsNotExist(err))
}
