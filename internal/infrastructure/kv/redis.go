package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements ports.KVStore directly over redis-go, storing raw
// bytes (the config/GC rows are already base64 JSON text) rather than
// going through an interface{}-typed cache wrapper — KVStore's contract is
// byte-for-byte.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-configured redis.Client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting key %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Create(ctx context.Context, key string, item []byte) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, item, 0).Result()
	if err != nil {
		return false, fmt.Errorf("creating key %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, item []byte) error {
	if err := s.client.Set(ctx, key, item, 0).Err(); err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("deleting key %s: %w", key, err)
	}
	return n > 0, nil
}
