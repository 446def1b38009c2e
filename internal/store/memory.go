package store

import (
	"context"
	"sync"
	"time"

	"pdf2slides/internal/models"
)

// Memory is an in-process Store with TTL eviction on read and sweep.
type Memory struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, jobs: make(map[string]*models.Job)}
}

func (m *Memory) Save(ctx context.Context, job *models.Job) error {
	if err := validate(job); err != nil {
		return err
	}
	stamp(job, m.ttl, m.now().UTC())
	c := cloneJob(job)
	m.mu.Lock()
	m.jobs[job.ID] = c
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(ctx context.Context, id string) (*models.Job, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	if job.Expired(m.now().UTC()) {
		_ = m.Delete(ctx, id)
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired jobs and reports how many were removed.
func (m *Memory) Sweep(ctx context.Context) (int, error) {
	now := m.now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		if job.Expired(now) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func cloneJob(job *models.Job) *models.Job {
	c := *job
	if job.Slides != nil {
		c.Slides = make([]models.SlideRecord, len(job.Slides))
		for i, s := range job.Slides {
			s.Content = append([]string(nil), s.Content...)
			c.Slides[i] = s
		}
	}
	return &c
}
