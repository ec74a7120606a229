package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("FEEDBACK_TTL_MS", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, StoreDriverFile, cfg.StoreDriver)
	assert.Equal(t, DefaultStorageKey, cfg.StorageKey)
	assert.Equal(t, 3*time.Second, cfg.FeedbackTTL)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("FEEDBACK_TTL_MS", "1500")
	t.Setenv("MAX_DB_CONNS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()

	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 1500*time.Millisecond, cfg.FeedbackTTL)
	assert.Equal(t, int32(4), cfg.MaxDBConns)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestStoreKey(t *testing.T) {
	assert.Equal(t, "classpoints:roster", StoreKey.SnapshotKey("roster"))
	assert.Equal(t, "classpoints.events.score.updated", StoreKey.EventSubject("classpoints.events", "score.updated"))
}
