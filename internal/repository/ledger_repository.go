package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/classpoints-backend/internal/model"
)

// LedgerRepository stores applied score events. The ledger is an audit
// trail only; student totals in the snapshot remain authoritative.
type LedgerRepository interface {
	Append(ctx context.Context, events []model.ScoreEvent) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]model.ScoreEvent, error)
}

// MemoryLedger is an in-process LedgerRepository.
type MemoryLedger struct {
	mu     sync.RWMutex
	events []model.ScoreEvent
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(_ context.Context, events []model.ScoreEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
	return nil
}

// ListByStudent returns the newest events first.
func (l *MemoryLedger) ListByStudent(_ context.Context, studentID string, limit int) ([]model.ScoreEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.ScoreEvent, 0)
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].StudentID != studentID {
			continue
		}
		out = append(out, l.events[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored events.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// PostgresLedger writes score events to the score_events table.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a PostgresLedger.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// Append bulk-inserts events with COPY.
func (l *PostgresLedger) Append(ctx context.Context, events []model.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	_, err := l.pool.CopyFrom(
		ctx,
		pgx.Identifier{"score_events"},
		[]string{"id", "class_id", "student_id", "label", "label_en", "points", "total_after", "occurred_at"},
		pgx.CopyFromSlice(len(events), func(i int) ([]interface{}, error) {
			e := events[i]
			return []interface{}{e.ID, e.ClassID, e.StudentID, e.Label, e.LabelEn, e.Points, e.TotalAfter, e.OccurredAt}, nil
		}),
	)
	return err
}

func (l *PostgresLedger) ListByStudent(ctx context.Context, studentID string, limit int) ([]model.ScoreEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, class_id, student_id, label, label_en, points, total_after, occurred_at
		 FROM score_events WHERE student_id = $1
		 ORDER BY occurred_at DESC LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.ScoreEvent, 0)
	for rows.Next() {
		var e model.ScoreEvent
		var at time.Time
		if err := rows.Scan(&e.ID, &e.ClassID, &e.StudentID, &e.Label, &e.LabelEn, &e.Points, &e.TotalAfter, &at); err != nil {
			return nil, err
		}
		e.OccurredAt = at
		events = append(events, e)
	}
	return events, rows.Err()
}
