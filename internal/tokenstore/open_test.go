package tokenstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forkful/internal/platform/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend", func(t *testing.T) {
		s, err := Open(ctx, config.TokenStoreConfig{Backend: config.TokenStoreMemory}, Backends{})
		require.NoError(t, err)
		assert.IsType(t, &InMemoryStore{}, s)
	})

	t.Run("empty backend defaults to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		s, err := Open(ctx, config.TokenStoreConfig{FilePath: path}, Backends{})
		require.NoError(t, err)
		assert.IsType(t, &FileStore{}, s)
	})

	t.Run("redis backend without client fails", func(t *testing.T) {
		_, err := Open(ctx, config.TokenStoreConfig{Backend: config.TokenStoreRedis}, Backends{})
		assert.ErrorContains(t, err, "FORKFUL_REDIS_URL")
	})

	t.Run("postgres backend without db fails", func(t *testing.T) {
		_, err := Open(ctx, config.TokenStoreConfig{Backend: config.TokenStorePostgres}, Backends{})
		assert.ErrorContains(t, err, "FORKFUL_POSTGRES_DSN")
	})

	t.Run("unknown backend fails", func(t *testing.T) {
		_, err := Open(ctx, config.TokenStoreConfig{Backend: "etcd"}, Backends{})
		assert.ErrorContains(t, err, "etcd")
	})
}
