package repository

import (
	"context"
	"sync"

	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/roster"
)

// MemoryStore keeps the encoded snapshot in memory.
type MemoryStore struct {
	mu    sync.Mutex
	raw   []byte
	saves int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]model.ClassData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, ErrSnapshotNotFound
	}
	return roster.Decode(s.raw)
}

func (s *MemoryStore) Save(_ context.Context, classes []model.ClassData) error {
	raw, err := roster.Encode(classes)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.raw = raw
	s.saves++
	s.mu.Unlock()
	return nil
}

// SetRaw stores raw as is, bypassing encoding.
func (s *MemoryStore) SetRaw(raw []byte) {
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
