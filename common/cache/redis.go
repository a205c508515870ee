package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fnhub/ingest/common/logger"
	rediscommon "github.com/fnhub/ingest/common/redis"
)

// RedisCache stores entries in Redis under a key prefix so several
// services can share one database
type RedisCache struct {
	client *rediscommon.Client
	prefix string
	log    *logger.Logger
}

// NewRedisCache creates a Redis-backed cache
func NewRedisCache(client *rediscommon.Client, prefix string, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(key))
	if errors.Is(err, rediscommon.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a value with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl)
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, c.key(key))
}

// Close is a no-op, the Redis client is owned by bootstrap
func (c *RedisCache) Close() error {
	return nil
}
