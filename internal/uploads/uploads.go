package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdf2slides/internal/apperr"
	"pdf2slides/internal/models"
)

// Rule describes what an upload field accepts.
type Rule struct {
	Name string
	// ContentTypes are sniffed type prefixes accepted for any extension.
	ContentTypes []string
	// Extensions, when set, are required in addition to a sniffed match.
	Extensions []string
	// Fallback types are accepted only when the extension matches.
	Fallback []string
}

var (
	PDF = Rule{
		Name:         "pdf",
		ContentTypes: []string{"application/pdf"},
	}
	// Template accepts .pptx files, which sniff as zip containers.
	Template = Rule{
		Name:         "template",
		ContentTypes: []string{"application/zip", "application/x-zip-compressed"},
		Extensions:   []string{".pptx"},
		Fallback:     []string{"application/octet-stream"},
	}
)

func (r Rule) allows(contentType, ext string) bool {
	extOK := len(r.Extensions) == 0
	for _, e := range r.Extensions {
		if strings.EqualFold(e, ext) {
			extOK = true
		}
	}
	if !extOK {
		return false
	}
	for _, t := range r.ContentTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	for _, t := range r.Fallback {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Store keeps uploaded files on local disk until their request is done.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes is the per-file limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates file against rule and writes it under a random name.
func (s *Store) Save(file *multipart.FileHeader, rule Rule) (*models.TempFile, error) {
	if file == nil {
		return nil, apperr.Upload(rule.Name+" file is required", nil)
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return nil, apperr.TooLarge(fmt.Sprintf("%s file too large (limit %d MB)", rule.Name, s.maxBytes>>20), nil)
	}
	src, err := file.Open()
	if err != nil {
		return nil, apperr.Upload("open uploaded file failed", err)
	}
	defer src.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(src, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperr.Upload("read uploaded file failed", err)
	}
	if n == 0 {
		return nil, apperr.Upload(rule.Name+" file is empty", nil)
	}
	contentType := http.DetectContentType(buf[:n])
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !rule.allows(contentType, ext) {
		return nil, apperr.Upload(fmt.Sprintf("unsupported %s file type %s", rule.Name, contentType), nil)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.Upload("read uploaded file failed", err)
	}

	destPath := filepath.Join(s.dir, uuid.NewString()+ext)
	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("save upload file: %w", err)
	}

	return &models.TempFile{
		FileName:   filepath.Base(file.Filename),
		StoredPath: destPath,
		MimeType:   contentType,
		Size:       written,
		CreatedAt:  s.now().UTC(),
	}, nil
}

// Remove deletes a stored upload; a missing file is not an error.
func (s *Store) Remove(tf *models.TempFile) error {
	if tf == nil {
		return nil
	}
	if err := os.Remove(tf.StoredPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
