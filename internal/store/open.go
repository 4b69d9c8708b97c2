package store

import (
	"context"
	"fmt"

	"joints/internal/config"

	"github.com/redis/go-redis/v9"
)

// Open builds the Store selected by STORE_DRIVER.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite, config.DriverPostgres:
		db, err := OpenDB(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return NewGORMStore(db)
	case config.DriverFile:
		return NewFileStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// OpenLocker uses Redis when REDIS_URL is set so several processes can share
// one data directory or database; otherwise locks are process-local. The
// returned client is nil for local locks and must be closed by the caller.
func OpenLocker(ctx context.Context, cfg *config.Config) (Locker, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return NewLocalLocker(), nil, nil
	}
	client, err := ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisLocker(client, cfg.LockTTL), client, nil
}
