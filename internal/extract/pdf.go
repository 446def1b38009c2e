package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdf2slides/internal/apperr"
)

var (
	errEmptyPDF     = errors.New("pdf content is empty")
	errNotPDF       = errors.New("missing %PDF header")
	pdfHeader       = []byte("%PDF-")
	pdfcpuConfigure sync.Once
)

// Document is the plain text of an uploaded PDF.
type Document struct {
	Text      string
	PageCount int
}

// Extractor turns PDF streams into plain text.
type Extractor struct {
	conf *model.Configuration
}

func NewExtractor() *Extractor {
	pdfcpuConfigure.Do(func() {
		// keep pdfcpu from writing a config dir into $HOME
		model.ConfigPath = "disable"
	})
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf}
}

// ExtractFile reads the PDF stored at path.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Extraction("open uploaded pdf", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, apperr.Extraction("stat uploaded pdf", err)
	}
	return e.ExtractText(ctx, f, info.Size())
}

// ExtractText validates r as a PDF and returns its text.
func (e *Extractor) ExtractText(ctx context.Context, r io.ReaderAt, size int64) (*Document, error) {
	if r == nil || size <= 0 {
		return nil, apperr.Extraction("pdf is empty", errEmptyPDF)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	head := make([]byte, 1024)
	n, _ := r.ReadAt(head, 0)
	if !bytes.Contains(head[:n], pdfHeader) {
		return nil, apperr.Extraction("file is not a pdf", errNotPDF)
	}

	pages, err := api.PageCount(io.NewSectionReader(r, 0, size), e.conf)
	if err != nil {
		return nil, apperr.Extraction("pdf could not be parsed", err)
	}

	text, err := plainText(r, size)
	if err != nil {
		return nil, apperr.Extraction("pdf text could not be extracted", err)
	}
	return &Document{Text: text, PageCount: pages}, nil
}

func plainText(r io.ReaderAt, size int64) (text string, err error) {
	// the reader panics on some malformed object streams
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}
	textReader, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
