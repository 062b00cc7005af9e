package cache

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// Redis stores entries in Redis without expiry so several server replicas
// share generated content.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

var _ domain.CacheStore = (*Redis)(nil)

// NewRedis wraps an existing client. Keys are stored as prefix+key.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

// NewRedisFromURL parses a redis:// URL and returns the store and its client.
func NewRedisFromURL(url, prefix string) (*Redis, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("op=cache.NewRedisFromURL: %w", err)
	}
	rdb := redis.NewClient(opts)
	return NewRedis(rdb, prefix), rdb, nil
}

func (c *Redis) Get(ctx domain.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("op=cache.redis.Get: %w", err)
	}
	return v, true, nil
}

func (c *Redis) Set(ctx domain.Context, key, value string) error {
	if err := c.rdb.Set(ctx, c.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("op=cache.redis.Set: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *Redis) Ping(ctx domain.Context) error {
	return c.rdb.Ping(ctx).Err()
}
