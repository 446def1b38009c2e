package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull     = errors.New("document mutation queue full")
	ErrManagerClosed = errors.New("mutation manager closed")
)

const (
	defaultQueueSize   = 32
	defaultIdleTimeout = time.Minute
)

// Mutation is one batched edit against a document.
type Mutation func(ctx context.Context) error

type Config struct {
	QueueSize   int
	IdleTimeout time.Duration
}

type task struct {
	ctx      context.Context
	fn       Mutation
	resultCh chan error
}

// Manager serializes mutations per document: each document ID is owned by a
// single goroutine, so at most one batch is in flight per document while
// different documents proceed in parallel.
type Manager struct {
	cfg    Config
	logger logrus.FieldLogger

	mu     sync.Mutex
	docs   map[string]*docState
	closed bool
}

func NewManager(cfg Config, logger logrus.FieldLogger) *Manager {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		docs:   make(map[string]*docState),
	}
}

// Submit queues fn for documentID and waits for it to finish.
func (m *Manager) Submit(ctx context.Context, documentID string, fn Mutation) error {
	if documentID == "" {
		return errors.New("document id required")
	}
	if fn == nil {
		return errors.New("mutation required")
	}
	resultCh := make(chan error, 1)
	t := task{ctx: ctx, fn: fn, resultCh: resultCh}

	if err := m.enqueue(documentID, t); err != nil {
		return err
	}
	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) enqueue(documentID string, t task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	state, ok := m.docs[documentID]
	if !ok {
		state = newDocState(m.cfg.QueueSize)
		m.docs[documentID] = state
		go m.runDocument(documentID, state)
	}
	select {
	case state.taskCh <- t:
		state.pending++
		return nil
	default:
		return ErrQueueFull
	}
}

// Active reports how many documents currently own a goroutine.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Close stops every document goroutine once its queued mutations finish.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, state := range m.docs {
		close(state.stopCh)
	}
}

func (m *Manager) runDocument(documentID string, state *docState) {
	idle := time.NewTimer(m.cfg.IdleTimeout)
	defer idle.Stop()
	log := m.logger.WithField("document_id", documentID)
	debugLog(log, "[mutations] worker started")

	for {
		select {
		case t := <-state.taskCh:
			m.handle(log, t)
			m.mu.Lock()
			state.pending--
			m.mu.Unlock()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(m.cfg.IdleTimeout)
		case <-idle.C:
			if m.retire(documentID, state) {
				debugLog(log, "[mutations] worker retired after idle timeout")
				return
			}
			idle.Reset(m.cfg.IdleTimeout)
		case <-state.stopCh:
			m.drain(log, state)
			return
		}
	}
}

// retire removes an idle document unless work arrived meanwhile.
func (m *Manager) retire(documentID string, state *docState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state.pending > 0 || len(state.taskCh) > 0 {
		return false
	}
	if m.docs[documentID] == state {
		delete(m.docs, documentID)
	}
	return true
}

func (m *Manager) drain(log logrus.FieldLogger, state *docState) {
	for {
		select {
		case t := <-state.taskCh:
			m.handle(log, t)
		default:
			return
		}
	}
}

func (m *Manager) handle(log logrus.FieldLogger, t task) {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		t.resultCh <- err
		return
	}
	start := time.Now()
	err := t.fn(ctx)
	debugLog(log, "[mutations] batch finished in %s (err=%v)", time.Since(start), err)
	t.resultCh <- err
}
