package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/roster"
)

// SQLiteStore keeps the snapshot in the kv_store table of a sqlite database.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteStore creates a SQLiteStore using key as the row key.
func NewSQLiteStore(db *sql.DB, key string) *SQLiteStore {
	return &SQLiteStore{db: db, key: key}
}

func (s *SQLiteStore) Load(ctx context.Context) ([]model.ClassData, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return roster.Decode([]byte(value))
}

func (s *SQLiteStore) Save(ctx context.Context, classes []model.ClassData) error {
	raw, err := roster.Encode(classes)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.key, string(raw))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
