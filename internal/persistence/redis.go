package persistence

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCartTTL = 30 * 24 * time.Hour

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{
		client:  client,
		baseTTL: defaultCartTTL,
	}
}

// RedisBackend stores carts as plain string values with a TTL so abandoned
// carts eventually expire.
type RedisBackend struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisBackend) Read(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

func (r *RedisBackend) Write(ctx context.Context, key, value string) error {
	// Jitter spreads expirations of carts created in the same burst.
	jitter := time.Duration(rand.Intn(60)) * time.Minute
	ttl := r.baseTTL + jitter

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
