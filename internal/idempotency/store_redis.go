package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps seen keys in Redis with TTL eviction, so dedupe survives
// process restarts and is shared across instances.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed seen-keys store.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "consentgate:seen:", ttl: ttl}
}

func (s *RedisStore) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check seen key: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Mark(ctx context.Context, key string) error {
	if err := s.client.SetNX(ctx, s.prefix+key, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("mark seen key: %w", err)
	}
	return nil
}
