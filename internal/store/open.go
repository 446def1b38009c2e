package store

import (
	"fmt"
	"io"
	"time"

	"pdf2slides/internal/config"
	"pdf2slides/internal/redis"
	"pdf2slides/internal/storage"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the Store selected by cfg.Store.Driver. The returned closer
// releases the backing connection.
func Open(cfg *config.Config) (Store, io.Closer, error) {
	ttl := time.Duration(cfg.Store.JobTTL) * time.Minute
	driver := config.NormalizeDriver(cfg.Store.Driver)
	switch driver {
	case "", "memory":
		return NewMemory(ttl), nopCloser{}, nil
	case "redis":
		client, err := redis.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create redis client: %w", err)
		}
		return NewRedis(client, ttl), client, nil
	case "sqlite3", "mysql":
		db, err := storage.Open(driver, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.Migrate(db, driver); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewSQL(db, driver, ttl), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
