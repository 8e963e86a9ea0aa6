//go:build integration

package tokenstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"forkful/pkg/platform/sentinel"
	"forkful/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestContract() {
	runStoreContract(s.T(), func(t *testing.T) Store {
		return NewRedis(s.redis.Client, WithNamespace(t.Name()))
	})
}

func (s *RedisStoreSuite) TestRoundTripAndBatchDelete() {
	ctx := context.Background()
	store := NewRedis(s.redis.Client, WithNamespace("phone"))

	s.Require().NoError(store.Set(ctx, AccessTokenKey, "a"))
	s.Require().NoError(store.Set(ctx, RefreshTokenKey, "r"))

	got, err := store.Get(ctx, AccessTokenKey)
	s.Require().NoError(err)
	s.Equal("a", got)

	s.Require().NoError(store.Delete(ctx, SessionKeys...))
	_, err = store.Get(ctx, RefreshTokenKey)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestNamespacesAreIsolated() {
	ctx := context.Background()
	phone := NewRedis(s.redis.Client, WithNamespace("phone"))
	tablet := NewRedis(s.redis.Client, WithNamespace("tablet"))

	s.Require().NoError(phone.Set(ctx, AccessTokenKey, "phone-token"))

	_, err := tablet.Get(ctx, AccessTokenKey)
	s.ErrorIs(err, sentinel.ErrNotFound)

	keys, err := s.redis.Client.Keys(ctx, "forkful:token:phone:*").Result()
	s.Require().NoError(err)
	s.Equal([]string{"forkful:token:phone:access_token"}, keys)
}
