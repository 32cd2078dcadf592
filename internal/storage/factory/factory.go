// Package factory selects and opens the configured storage backend. The
// chosen Store is constructed once at startup and injected into request
// handling; nothing reads backend selection from ambient state afterwards.
package factory

import (
	"context"
	"fmt"

	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/storage"
	"github.com/mlutsenko/bookshelf/internal/storage/mongostore"
	"github.com/mlutsenko/bookshelf/internal/storage/redisstore"
	"github.com/mlutsenko/bookshelf/internal/storage/sqlstore"
)

// Open builds the backend named by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQL, "":
		return sqlstore.Open(cfg.Database)
	case config.BackendMongo:
		return mongostore.Open(ctx, cfg.Mongo)
	case config.BackendRedis:
		return redisstore.Open(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
