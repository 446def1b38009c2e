package store

import (
	"context"
	"errors"
	"time"

	"pdf2slides/internal/models"
)

// ErrJobNotFound is returned for unknown or expired jobs.
var ErrJobNotFound = errors.New("job not found")

// Store keeps short-lived job records between the extraction and build calls.
type Store interface {
	Save(ctx context.Context, job *models.Job) error
	Load(ctx context.Context, id string) (*models.Job, error)
	Delete(ctx context.Context, id string) error
}

// stamp fills CreatedAt/ExpiresAt when absent.
func stamp(job *models.Job, ttl time.Duration, now time.Time) {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.ExpiresAt.IsZero() && ttl > 0 {
		job.ExpiresAt = job.CreatedAt.Add(ttl)
	}
}

func validate(job *models.Job) error {
	if job == nil {
		return errors.New("job required")
	}
	if job.ID == "" {
		return errors.New("job id required")
	}
	return nil
}
