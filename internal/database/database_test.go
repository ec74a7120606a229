package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_CreatesSchema(t *testing.T) {
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO kv_store (key, value) VALUES ('k', 'v')`)
	assert.NoError(t, err)
}

func TestOpenRedis_RejectsBadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "http://localhost:6379", "classpoints", zerolog.Nop())
	assert.ErrorContains(t, err, "parse redis URL")
}

func TestOpenPostgres_RejectsBadURL(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "postgres://u@localhost:notaport/db", PoolOptions{}, zerolog.Nop())
	assert.ErrorContains(t, err, "parse database URL")
}
