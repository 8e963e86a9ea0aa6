package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureRequestID(t *testing.T) {
	t.Run("keeps an existing id", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		got, id := EnsureRequestID(ctx)
		assert.Equal(t, "req-1", id)
		assert.Equal(t, "req-1", RequestID(got))
	})

	t.Run("generates a uuid when missing", func(t *testing.T) {
		got, id := EnsureRequestID(context.Background())
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, RequestID(got))
	})
}

func TestNowFallsBackToWallClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}
