package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/repository"
)

// LedgerWorker appends recorded score events to the ledger in batches of up
// to batchSize, or every batchTimeout. Its queue is unbounded: a slow ledger
// delays events but never loses them.
type LedgerWorker struct {
	repo         repository.LedgerRepository
	log          zerolog.Logger
	batchSize    int
	batchTimeout time.Duration

	mu    sync.Mutex
	queue []model.ScoreEvent
	wake  chan struct{}
}

// NewLedgerWorker creates a new LedgerWorker.
func NewLedgerWorker(repo repository.LedgerRepository, log zerolog.Logger) *LedgerWorker {
	return &LedgerWorker{
		repo:         repo,
		log:          log.With().Str("component", "ledger_worker").Logger(),
		batchSize:    config.WorkerKey.LedgerBatchSize,
		batchTimeout: config.WorkerKey.LedgerBatchTimeout,
		wake:         make(chan struct{}, 1),
	}
}

// Record queues e for the ledger. It never blocks.
func (w *LedgerWorker) Record(e model.ScoreEvent) {
	w.mu.Lock()
	w.queue = append(w.queue, e)
	full := len(w.queue) >= w.batchSize
	w.mu.Unlock()

	if full {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

// Pending returns the number of queued events not yet handed to the ledger.
func (w *LedgerWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Start begins the worker loop. Call in a goroutine. It returns when ctx is
// cancelled, after flushing everything queued.
func (w *LedgerWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LedgerWorker started")

	ticker := time.NewTicker(w.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining events...")
			w.drain(context.Background(), true)
			return
		case <-w.wake:
			w.drain(context.WithoutCancel(ctx), false)
		case <-ticker.C:
			w.drain(context.WithoutCancel(ctx), true)
		}
	}
}

// drain writes full batches from the queue. With partial set the last,
// short batch is written too. Batches taken off the queue are written even
// if shutdown starts meanwhile.
func (w *LedgerWorker) drain(ctx context.Context, partial bool) {
	for {
		w.mu.Lock()
		n := len(w.queue)
		if n == 0 || (n < w.batchSize && !partial) {
			w.mu.Unlock()
			return
		}
		if n > w.batchSize {
			n = w.batchSize
		}
		batch := make([]model.ScoreEvent, n)
		copy(batch, w.queue)
		w.queue = w.queue[n:]
		w.mu.Unlock()

		w.flushSafe(ctx, batch)
	}
}

// flushSafe appends batch in one call, falling back to one event at a time.
func (w *LedgerWorker) flushSafe(ctx context.Context, batch []model.ScoreEvent) {
	if len(batch) == 0 {
		return
	}

	if err := w.repo.Append(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("Bulk ledger append failed, using fallback")

		for i := range batch {
			if err := w.repo.Append(ctx, batch[i:i+1]); err != nil {
				w.log.Error().Err(err).Str("event_id", batch[i].ID.String()).Msg("Ledger event dropped")
			}
		}
		return
	}
	w.log.Debug().Int("size", len(batch)).Msg("Ledger batch written")
}
