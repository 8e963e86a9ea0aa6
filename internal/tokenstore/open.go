package tokenstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"forkful/internal/platform/config"
)

// Backends carries the already-connected clients a backend may need.
type Backends struct {
	Redis    *redis.Client
	Postgres *sql.DB
}

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.TokenStoreConfig, b Backends) (Store, error) {
	switch cfg.Backend {
	case config.TokenStoreMemory:
		return NewInMemory(), nil
	case config.TokenStoreFile, "":
		return NewFile(cfg.FilePath), nil
	case config.TokenStoreRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("token store %q requires FORKFUL_REDIS_URL", cfg.Backend)
		}
		return NewRedis(b.Redis, WithNamespace(cfg.Namespace)), nil
	case config.TokenStorePostgres:
		if b.Postgres == nil {
			return nil, fmt.Errorf("token store %q requires FORKFUL_POSTGRES_DSN", cfg.Backend)
		}
		store := NewPostgres(b.Postgres, WithPostgresNamespace(cfg.Namespace))
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown token store backend %q", cfg.Backend)
	}
}
