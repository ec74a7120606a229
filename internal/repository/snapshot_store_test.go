package repository

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/classpoints-backend/internal/database"
	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/roster"
)

func seedRoster() []model.ClassData {
	return roster.Seed(rand.New(rand.NewSource(42)))
}

// exerciseStore checks the contract every SnapshotStore must satisfy.
func exerciseStore(t *testing.T, store SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	first := seedRoster()
	require.NoError(t, store.Save(ctx, first))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second, _, ok := roster.ApplyBehavior(first, first[0].ID, first[0].Students[0].ID, model.Behavior{Label: "x", Points: -2})
	require.True(t, ok)
	require.NoError(t, store.Save(ctx, second))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, -2, got[0].Students[0].TotalScore, "last write wins")
	assert.Equal(t, 2, got[0].Students[0].NegCount)

	require.NoError(t, store.Save(ctx, []model.ClassData{}))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_Corrupt(t *testing.T) {
	s := NewMemoryStore()
	s.SetRaw([]byte("{not json"))

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, roster.ErrInvalidRoster)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	exerciseStore(t, NewFileStore(path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, roster.ErrInvalidRoster)
}

func TestFileStore_ReadsOriginalExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	export := `[
  {
    "id": "4B_putonghua",
    "name": "4B",
    "students": [
      {"id": "s1", "name": "Ann", "studentNumber": 1, "pokemonId": 7, "totalScore": 5, "posCount": 6, "negCount": 1}
    ]
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	classes, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 5, classes[0].Students[0].TotalScore)
}

func TestSQLiteStore(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exerciseStore(t, NewSQLiteStore(db, "classpoints:test"))
}

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.Append(ctx, []model.ScoreEvent{
		{ID: uuid.New(), StudentID: "s1", Points: 1, OccurredAt: base},
		{ID: uuid.New(), StudentID: "s2", Points: 5, OccurredAt: base.Add(time.Second)},
		{ID: uuid.New(), StudentID: "s1", Points: -1, OccurredAt: base.Add(2 * time.Second)},
	}))
	assert.Equal(t, 3, l.Len())

	history, err := l.ListByStudent(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, -1, history[0].Points, "newest first")

	limited, err := l.ListByStudent(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := l.ListByStudent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
