package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdf2slides/internal/apperr"
	"pdf2slides/internal/auth"
	"pdf2slides/internal/extract"
	"pdf2slides/internal/models"
	"pdf2slides/internal/store"
	"pdf2slides/internal/uploads"
)

const (
	pdfField      = "pdf"
	templateField = "ppt"
	jobIDField    = "jobId"

	// multipart framing allowance on top of the file limit
	formOverhead = 1 << 20
)

type TextExtractor interface {
	ExtractFile(ctx context.Context, path string) (*extract.Document, error)
}

type SlideStructurer interface {
	Structure(ctx context.Context, text string) ([]models.SlideRecord, error)
}

type PresentationBuilder interface {
	Build(ctx context.Context, templatePath string, records []models.SlideRecord) (*models.BuildResult, error)
}

// Deps are the collaborators a Handler needs.
type Deps struct {
	Extractor     TextExtractor
	Structurer    SlideStructurer
	Builder       PresentationBuilder
	Jobs          store.Store
	Files         *uploads.Store
	Auth          *auth.Service
	Logger        logrus.FieldLogger
	RemoteTimeout time.Duration
}

// Handler wires HTTP routes to the extraction, structuring and build pipeline.
type Handler struct {
	extractor     TextExtractor
	structurer    SlideStructurer
	builder       PresentationBuilder
	jobs          store.Store
	files         *uploads.Store
	auth          *auth.Service
	logger        logrus.FieldLogger
	remoteTimeout time.Duration
}

// NewHandler constructs a Handler instance.
func NewHandler(d Deps) *Handler {
	authSvc := d.Auth
	if authSvc == nil {
		authSvc = auth.NewService("")
	}
	return &Handler{
		extractor:     d.Extractor,
		structurer:    d.Structurer,
		builder:       d.Builder,
		jobs:          d.Jobs,
		files:         d.Files,
		auth:          authSvc,
		logger:        d.Logger,
		remoteTimeout: d.RemoteTimeout,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)
	routes := router.Group("")
	routes.Use(h.auth.Middleware())
	routes.POST("/extract-pdf", h.extractPDF)
	routes.POST("/upload-template-and-generate", h.generatePresentation)
	routes.GET("/jobs/:id", h.getJob)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) extractPDF(c *gin.Context) {
	h.limitBody(c)
	file, err := c.FormFile(pdfField)
	if err != nil {
		h.fail(c, formFileError(err, "no PDF file uploaded"))
		return
	}
	tf, err := h.files.Save(file, uploads.PDF)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer h.removeUpload(tf)

	ctx := c.Request.Context()
	doc, err := h.extractor.ExtractFile(ctx, tf.StoredPath)
	if err != nil {
		h.fail(c, err)
		return
	}

	job := &models.Job{
		ID:            uuid.NewString(),
		FileName:      tf.FileName,
		PageCount:     doc.PageCount,
		ExtractedText: doc.Text,
	}
	log := h.logger.WithField("job_id", job.ID)

	structCtx, cancel := h.remoteContext(ctx)
	slides, err := h.structurer.Structure(structCtx, doc.Text)
	cancel()
	switch {
	case err != nil:
		job.StructuringError = apperr.Message(err)
		log.WithError(err).Warn("structuring failed")
	case len(slides) == 0:
		job.StructuringError = "model returned no slides"
		log.Warn("structuring produced no slides")
	default:
		job.Slides = slides
	}

	if err := h.jobs.Save(ctx, job); err != nil {
		log.WithError(err).Error("save job failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save job failed"})
		return
	}
	log.WithFields(logrus.Fields{
		"pages":  doc.PageCount,
		"slides": len(job.Slides),
	}).Info("pdf extracted")

	var structured any = job.Slides
	if !job.Ready() {
		structured = gin.H{"error": job.StructuringError}
	}
	c.JSON(http.StatusOK, gin.H{
		"jobId":             job.ID,
		"extractedText":     job.ExtractedText,
		"structuredContent": structured,
	})
}

func (h *Handler) generatePresentation(c *gin.Context) {
	h.limitBody(c)
	jobID := c.PostForm(jobIDField)
	if jobID == "" {
		jobID = c.Query(jobIDField)
	}
	if jobID == "" {
		h.fail(c, apperr.Upload("jobId is required", nil))
		return
	}
	file, err := c.FormFile(templateField)
	if err != nil {
		h.fail(c, formFileError(err, "no template file uploaded"))
		return
	}

	ctx := c.Request.Context()
	job, err := h.loadJob(ctx, jobID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !job.Ready() {
		h.fail(c, apperr.Structuring("no structured content available for this job: "+job.Unavailable(), nil))
		return
	}

	tf, err := h.files.Save(file, uploads.Template)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer h.removeUpload(tf)

	buildCtx, cancel := h.remoteContext(ctx)
	defer cancel()
	result, err := h.builder.Build(buildCtx, tf.StoredPath, job.Slides)
	if err != nil {
		h.logger.WithError(err).WithField("job_id", job.ID).Error("build presentation failed")
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.loadJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) loadJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := h.jobs.Load(ctx, id)
	if errors.Is(err, store.ErrJobNotFound) {
		return nil, apperr.NotFound("job not found or expired", err)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (h *Handler) limitBody(c *gin.Context) {
	if limit := h.files.MaxBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+formOverhead)
	}
}

func (h *Handler) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.remoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.remoteTimeout)
}

func (h *Handler) removeUpload(tf *models.TempFile) {
	if err := h.files.Remove(tf); err != nil {
		h.logger.WithError(err).WithField("path", tf.StoredPath).Warn("remove upload failed")
	}
}

// fail writes err as {error} with the status of its kind.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func formFileError(err error, missing string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.TooLarge("upload too large", err)
	}
	return apperr.Upload(missing, err)
}
