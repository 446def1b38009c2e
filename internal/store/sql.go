package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pdf2slides/internal/models"
)

// SQL persists jobs in the jobs table created by storage.Migrate.
type SQL struct {
	db     *sql.DB
	driver string
	ttl    time.Duration
}

func NewSQL(db *sql.DB, driver string, ttl time.Duration) *SQL {
	return &SQL{db: db, driver: driver, ttl: ttl}
}

func (s *SQL) Save(ctx context.Context, job *models.Job) error {
	if err := validate(job); err != nil {
		return err
	}
	stamp(job, s.ttl, time.Now().UTC())
	slides, err := json.Marshal(job.Slides)
	if err != nil {
		return fmt.Errorf("marshal slides: %w", err)
	}
	query := `INSERT INTO jobs (id, file_name, page_count, extracted_text, slides, structuring_error, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET file_name = excluded.file_name, page_count = excluded.page_count,
			extracted_text = excluded.extracted_text, slides = excluded.slides,
			structuring_error = excluded.structuring_error, expires_at = excluded.expires_at`
	if s.driver == "mysql" {
		query = `INSERT INTO jobs (id, file_name, page_count, extracted_text, slides, structuring_error, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE file_name = VALUES(file_name), page_count = VALUES(page_count),
			extracted_text = VALUES(extracted_text), slides = VALUES(slides),
			structuring_error = VALUES(structuring_error), expires_at = VALUES(expires_at)`
	}
	_, err = s.db.ExecContext(ctx, query,
		job.ID, job.FileName, job.PageCount, job.ExtractedText, string(slides),
		job.StructuringError, job.CreatedAt, job.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

func (s *SQL) Load(ctx context.Context, id string) (*models.Job, error) {
	var (
		job    models.Job
		slides string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, page_count, extracted_text, slides, structuring_error, created_at, expires_at
		FROM jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.FileName, &job.PageCount, &job.ExtractedText, &slides,
		&job.StructuringError, &job.CreatedAt, &job.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job.Expired(time.Now().UTC()) {
		_ = s.Delete(ctx, id)
		return nil, ErrJobNotFound
	}
	if err := json.Unmarshal([]byte(slides), &job.Slides); err != nil {
		return nil, fmt.Errorf("decode slides: %w", err)
	}
	return &job, nil
}

func (s *SQL) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// Sweep removes expired rows.
func (s *SQL) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}
