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

// SnapshotWorker writes the roster to the snapshot store off the request
// path. Only the latest roster matters: enqueueing while a save is pending
// replaces the pending value.
type SnapshotWorker struct {
	store      repository.SnapshotStore
	log        zerolog.Logger
	retryDelay time.Duration

	saveMu  sync.Mutex
	mu      sync.Mutex
	pending []model.ClassData
	dirty   bool
	wake    chan struct{}
	saved   int
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(store repository.SnapshotStore, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		store:      store,
		log:        log.With().Str("component", "snapshot_worker").Logger(),
		retryDelay: config.WorkerKey.SnapshotRetryDelay,
		wake:       make(chan struct{}, 1),
	}
}

// Enqueue schedules classes to be saved. It never blocks.
func (w *SnapshotWorker) Enqueue(classes []model.ClassData) {
	w.mu.Lock()
	w.pending = classes
	w.dirty = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			if err := w.Flush(context.Background()); err != nil {
				w.log.Error().Err(err).Msg("Final snapshot save failed")
			}
			w.log.Info().Msg("Worker stopped")
			return
		case <-w.wake:
			if err := w.Flush(ctx); err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Dur("retry_in", w.retryDelay).Msg("Snapshot save failed")
				w.retryLater(ctx)
			}
		}
	}
}

// Flush saves the pending roster, if any, synchronously. On failure the
// roster stays pending unless a newer one arrived meanwhile.
func (w *SnapshotWorker) Flush(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	if !w.dirty {
		w.mu.Unlock()
		return nil
	}
	classes := w.pending
	w.dirty = false
	w.mu.Unlock()

	if err := w.store.Save(ctx, classes); err != nil {
		w.mu.Lock()
		// pending is either classes or something newer; both need saving.
		w.dirty = true
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.saved++
	w.mu.Unlock()
	w.log.Debug().Int("classes", len(classes)).Msg("Snapshot saved")
	return nil
}

// Saved returns the number of successful saves.
func (w *SnapshotWorker) Saved() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saved
}

func (w *SnapshotWorker) retryLater(ctx context.Context) {
	t := time.NewTimer(w.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}
