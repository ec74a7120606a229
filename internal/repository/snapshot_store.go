package repository

import (
	"context"
	"errors"

	"github.com/stemsi/classpoints-backend/internal/model"
)

// ErrSnapshotNotFound is returned by Load when nothing has been saved yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists the whole class collection under one fixed key.
// Every Save overwrites the previous value.
type SnapshotStore interface {
	Load(ctx context.Context) ([]model.ClassData, error)
	Save(ctx context.Context, classes []model.ClassData) error
}
