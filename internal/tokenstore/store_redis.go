package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"forkful/pkg/platform/sentinel"
)

// Redis key prefix for session tokens; the namespace separates devices or
// profiles sharing one Redis.
const tokenKeyPrefix = "forkful:token:"

// RedisStore keeps tokens in Redis without expiry.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithNamespace scopes keys under ns.
func WithNamespace(ns string) RedisOption {
	return func(s *RedisStore) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// NewRedis constructs a Redis-backed token store.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, namespace: "default"}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) key(name string) string {
	return tokenKeyPrefix + s.namespace + ":" + name
}

func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	v, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("token %s: %w", name, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// Delete removes names in one pipeline round trip.
func (s *RedisStore) Delete(ctx context.Context, names ...string) error {
	if err := validateNames(names); err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, name := range names {
		pipe.Del(ctx, s.key(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete tokens: %w", err)
	}
	return nil
}
