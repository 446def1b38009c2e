package uploads

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf2slides/internal/apperr"
	"pdf2slides/internal/logging"
)

func fileHeader(t *testing.T, field, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File[field], 1)
	return form.File[field][0]
}

func TestSaveAcceptsPDF(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	data := []byte("%PDF-1.4\n%fake body\n")
	tf, err := s.Save(fileHeader(t, "pdf", "report.pdf", data), PDF)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", tf.FileName)
	assert.Equal(t, "application/pdf", tf.MimeType)
	assert.Equal(t, int64(len(data)), tf.Size)
	assert.Equal(t, ".pdf", filepath.Ext(tf.StoredPath))
	assert.Equal(t, s.Dir(), filepath.Dir(tf.StoredPath))

	stored, err := os.ReadFile(tf.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	require.NoError(t, s.Remove(tf))
	assert.NoFileExists(t, tf.StoredPath)
	require.NoError(t, s.Remove(tf), "second remove is a no-op")
}

func TestSaveRejectsNonPDF(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	_, err = s.Save(fileHeader(t, "pdf", "notes.pdf", []byte("just some text")), PDF)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpload))
}

func TestSaveTemplateRules(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	zip := []byte("PK\x03\x04\x14\x00\x06\x00rest-of-pptx")

	tf, err := s.Save(fileHeader(t, "ppt", "deck.pptx", zip), Template)
	require.NoError(t, err)
	assert.Equal(t, ".pptx", filepath.Ext(tf.StoredPath))

	_, err = s.Save(fileHeader(t, "ppt", "deck.zip", zip), Template)
	assert.True(t, apperr.Is(err, apperr.KindUpload), "wrong extension")

	_, err = s.Save(fileHeader(t, "ppt", "deck.pptx", []byte("%PDF-1.4")), Template)
	assert.True(t, apperr.Is(err, apperr.KindUpload), "wrong content")
}

func TestSaveLimits(t *testing.T) {
	s, err := NewStore(t.TempDir(), 8)
	require.NoError(t, err)

	_, err = s.Save(fileHeader(t, "pdf", "big.pdf", []byte("%PDF-1.4 more than eight bytes")), PDF)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTooLarge))
	assert.Contains(t, apperr.Message(err), "too large")

	_, err = s.Save(fileHeader(t, "pdf", "empty.pdf", nil), PDF)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpload))

	_, err = s.Save(nil, PDF)
	assert.Equal(t, "pdf file is required", apperr.Message(err))
}

func TestCleanExpired(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 0)
	require.NoError(t, err)

	old := filepath.Join(dir, "old.pdf")
	fresh := filepath.Join(dir, "fresh.pdf")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	n, err := s.CleanExpired(time.Hour, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(dir, "subdir"))
}
