package tokenstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "forkful/pkg/domain-errors"
	"forkful/pkg/platform/sentinel"
)

// runStoreContract exercises the behaviour every backend must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get of absent name is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, AccessTokenKey)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("set then get round trips and overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, AccessTokenKey, "a1"))
		require.NoError(t, s.Set(ctx, AccessTokenKey, "a2"))

		got, err := s.Get(ctx, AccessTokenKey)
		require.NoError(t, err)
		assert.Equal(t, "a2", got)
	})

	t.Run("delete removes both session keys", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, AccessTokenKey, "a"))
		require.NoError(t, s.Set(ctx, RefreshTokenKey, "r"))
		require.NoError(t, s.Set(ctx, "device_id", "d"))

		require.NoError(t, s.Delete(ctx, SessionKeys...))

		_, err := s.Get(ctx, AccessTokenKey)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.Get(ctx, RefreshTokenKey)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		other, err := s.Get(ctx, "device_id")
		require.NoError(t, err)
		assert.Equal(t, "d", other)
	})

	t.Run("delete of missing names succeeds", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Delete(ctx, SessionKeys...))
		assert.NoError(t, s.Delete(ctx))
	})

	t.Run("empty names are rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.Set(ctx, " ", "x")
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
		_, err = s.Get(ctx, "")
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
		err = s.Delete(ctx, AccessTokenKey, "")
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}
