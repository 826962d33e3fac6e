package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atelier-labs/commission-api/internal/models"
)

// Store persists audit records.
type Store interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Config tunes the background writer pool.
type Config struct {
	Workers     int
	BufferSize  int
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *zap.Logger
}

type entry struct {
	record  *models.AuditLog
	attempt int
}

// Writer persists audit records off the request path. Records are buffered
// on an in-memory channel and written by a small worker pool; a full buffer
// surfaces as an Enqueue error rather than blocking a request.
type Writer struct {
	store Store

	workers     int
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger

	entries chan entry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewWriter builds a writer over the given store.
func NewWriter(store Store, cfg Config) *Writer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Writer{
		store:       store,
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      cfg.Logger,
		entries:     make(chan entry, cfg.BufferSize),
	}
}

// Start launches the worker pool. Safe to call once.
func (w *Writer) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker()
	}
	w.started = true
	w.logger.Sugar().Infow("audit writer started", "workers", w.workers)
}

// Stop cancels workers and waits for them to exit. Buffered records that
// have not been picked up yet are dropped.
func (w *Writer) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.mu.Unlock()
	w.wg.Wait()
	w.logger.Sugar().Infow("audit writer stopped")
}

// Record queues an audit record for persistence. Missing identifiers and
// timestamps are filled in here so callers only describe the event.
func (w *Writer) Record(record *models.AuditLog) error {
	if record == nil {
		return fmt.Errorf("audit: nil record")
	}

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return fmt.Errorf("audit: writer not started")
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	select {
	case w.entries <- entry{record: record}:
		return nil
	default:
		return fmt.Errorf("audit: buffer full, dropping %s record", record.Action)
	}
}

// CreateAuditLog queues the record, matching the synchronous store signature
// so the writer can stand in wherever one is expected. The context is unused;
// persistence happens on the worker pool.
func (w *Writer) CreateAuditLog(_ context.Context, record *models.AuditLog) error {
	return w.Record(record)
}

func (w *Writer) worker() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case e := <-w.entries:
			if err := w.store.CreateAuditLog(w.ctx, e.record); err != nil {
				w.retry(e, err)
			}
		}
	}
}

func (w *Writer) retry(e entry, err error) {
	e.attempt++
	if e.attempt >= w.maxAttempts {
		w.logger.Sugar().Errorw("audit record dropped",
			"action", e.record.Action, "resource", e.record.Resource, "error", err)
		return
	}
	w.logger.Sugar().Warnw("audit write failed, retrying",
		"action", e.record.Action, "attempt", e.attempt, "error", err)

	go func() {
		timer := time.NewTimer(w.retryDelay)
		defer timer.Stop()
		select {
		case <-w.ctx.Done():
		case <-timer.C:
			select {
			case w.entries <- e:
			default:
				w.logger.Sugar().Errorw("audit record dropped on requeue", "action", e.record.Action)
			}
		}
	}()
}
