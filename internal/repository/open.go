package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/database"
)

// appName identifies this service's connections on the database side.
const appName = "classpoints"

// Stores bundles the adapters selected by STORE_DRIVER together with the
// connections they hold open.
type Stores struct {
	Snapshot SnapshotStore
	Ledger   LedgerRepository
	closers  []func()
}

// Close releases every connection opened by Open, newest first.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open connects the snapshot store named by cfg.StoreDriver. The ledger
// lives in Postgres when that driver is used and in memory otherwise.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	s := &Stores{Ledger: NewMemoryLedger()}
	key := config.StoreKey.SnapshotKey(cfg.StorageKey)

	switch cfg.StoreDriver {
	case config.StoreDriverFile:
		s.Snapshot = NewFileStore(config.StoreKey.SnapshotFile(cfg.DataDir, cfg.StorageKey))

	case config.StoreDriverSQLite:
		db, err := database.NewSQLite(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		s.Snapshot = NewSQLiteStore(db, key)

	case config.StoreDriverRedis:
		rdb, err := database.OpenRedis(ctx, cfg.RedisURL, appName, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		s.Snapshot = NewRedisStore(rdb, key)
		log.Info().Str("key", key).Msg("Roster snapshot kept in redis")

	case config.StoreDriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxConns: cfg.MaxDBConns,
			AppName:  appName,
		}, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		s.Snapshot = NewPostgresStore(pool, key)
		s.Ledger = NewPostgresLedger(pool)

	case config.StoreDriverMemory:
		log.Warn().Msg("Memory store selected, roster will not survive a restart")
		s.Snapshot = NewMemoryStore()

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	return s, nil
}
