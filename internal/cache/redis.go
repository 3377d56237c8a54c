package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ordino:idempotency:"

// NewRedisClient parses a redis:// URL and verifies the connection
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisStore is an IdempotencyStore shared by every API instance
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, response, ttl).Err(); err != nil {
		return fmt.Errorf("store idempotent response: %w", err)
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if string(val) == pendingMarker {
		return nil, false, nil
	}
	return val, true, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
