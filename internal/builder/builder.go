package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/slides/v1"

	"pdf2slides/internal/apperr"
	"pdf2slides/internal/google"
	"pdf2slides/internal/models"
	"pdf2slides/internal/worker"
)

const PPTXMimeType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// DocumentStore is the Drive side of a build.
type DocumentStore interface {
	UploadPresentation(ctx context.Context, name string, r io.Reader, sourceMime string) (string, error)
	Copy(ctx context.Context, fileID, name string) (string, error)
	ShareAnyoneReader(ctx context.Context, fileID string) error
	Delete(ctx context.Context, fileID string) error
}

// PresentationEditor is the Slides side of a build.
type PresentationEditor interface {
	SlidePages(ctx context.Context, presentationID string) ([]google.Page, error)
	BatchUpdate(ctx context.Context, presentationID string, requests []*slides.Request) error
}

// MutationQueue serializes batches per document.
type MutationQueue interface {
	Submit(ctx context.Context, documentID string, fn worker.Mutation) error
}

type Options struct {
	TemplateName string
	CopyName     string
}

// Builder writes slide records into a copy of an uploaded template.
type Builder struct {
	docs   DocumentStore
	editor PresentationEditor
	queue  MutationQueue
	logger logrus.FieldLogger
	opts   Options
	newID  func() string
}

func New(docs DocumentStore, editor PresentationEditor, queue MutationQueue, opts Options, logger logrus.FieldLogger) *Builder {
	if opts.TemplateName == "" {
		opts.TemplateName = "Uploaded Template"
	}
	if opts.CopyName == "" {
		opts.CopyName = "Generated PPT"
	}
	return &Builder{
		docs:   docs,
		editor: editor,
		queue:  queue,
		logger: logger,
		opts:   opts,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Build uploads the template at templatePath, fills its working copy with
// records and returns the share URL. The local template file is removed
// whatever the outcome.
func (b *Builder) Build(ctx context.Context, templatePath string, records []models.SlideRecord) (*models.BuildResult, error) {
	log := b.logger.WithField("template", templatePath)
	defer removeLocal(log, templatePath)

	if len(records) == 0 {
		return nil, apperr.Build("no slide records to build", nil)
	}

	f, err := os.Open(templatePath)
	if err != nil {
		return nil, apperr.Build("open template", err)
	}
	uploadID, err := b.docs.UploadPresentation(ctx, b.opts.TemplateName, f, PPTXMimeType)
	f.Close()
	if err != nil {
		return nil, apperr.Build("upload template", err)
	}
	defer b.deleteUpload(log, uploadID)

	presentationID, err := b.docs.Copy(ctx, uploadID, b.opts.CopyName)
	if err != nil {
		return nil, apperr.Build("copy template", err)
	}
	log = log.WithField("presentation_id", presentationID)

	if err := b.docs.ShareAnyoneReader(ctx, presentationID); err != nil {
		return nil, apperr.Build("share presentation", err)
	}

	pages, err := b.editor.SlidePages(ctx, presentationID)
	if err != nil {
		return nil, apperr.Build("read presentation", err)
	}

	result := &models.BuildResult{
		PresentationID: presentationID,
		URL:            models.PresentationURL(presentationID),
		TemplateSlides: len(pages),
	}
	n := len(records)
	if n > len(pages) {
		result.DroppedRecords = n - len(pages)
		log.WithFields(logrus.Fields{
			"records":         n,
			"template_slides": len(pages),
		}).Warn("template has fewer slides than records, extra records dropped")
		n = len(pages)
	}

	for i := 0; i < n; i++ {
		layout := slideLayout{
			PageID:    pages[i].ObjectID,
			TitleID:   "title_" + b.newID(),
			ContentID: "body_" + b.newID(),
		}
		reqs := populateRequests(layout, pages[i].ElementIDs, records[i])
		if err := b.mutate(ctx, presentationID, reqs); err != nil {
			return nil, apperr.Build(fmt.Sprintf("populate slide %d", i+1), err)
		}
		result.PopulatedSlides++
		log.WithField("slide", i+1).Debug("slide populated")
	}

	if extra := pages[n:]; len(extra) > 0 {
		ids := make([]string, len(extra))
		for i, p := range extra {
			ids[i] = p.ObjectID
		}
		if err := b.mutate(ctx, presentationID, deleteSlidesRequests(ids)); err != nil {
			return nil, apperr.Build("delete unused template slides", err)
		}
		result.DeletedSlides = len(ids)
	}

	log.WithFields(logrus.Fields{
		"populated": result.PopulatedSlides,
		"deleted":   result.DeletedSlides,
	}).Info("presentation built")
	return result, nil
}

func (b *Builder) mutate(ctx context.Context, presentationID string, reqs []*slides.Request) error {
	if b.queue == nil {
		return b.editor.BatchUpdate(ctx, presentationID, reqs)
	}
	return b.queue.Submit(ctx, presentationID, func(ctx context.Context) error {
		return b.editor.BatchUpdate(ctx, presentationID, reqs)
	})
}

func (b *Builder) deleteUpload(log logrus.FieldLogger, uploadID string) {
	// the request context may already be gone
	if err := b.docs.Delete(context.Background(), uploadID); err != nil {
		log.WithError(err).WithField("upload_id", uploadID).Warn("delete uploaded template failed")
	}
}

func removeLocal(log logrus.FieldLogger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to delete local template file")
	}
}
