package ai

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

const redisKeyPrefix = "assist:"

// RedisCache is a domain.ResponseCache backed by Redis, for deployments where
// replicas should share one response cache. Expiry is delegated to Redis.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache constructs a cache over an existing Redis client.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get returns the stored text when the key is present and not expired.
func (c *RedisCache) Get(ctx domain.Context, key string) (string, bool) {
	v, err := c.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("redis cache get failed", slog.Any("error", err))
		}
		return "", false
	}
	return v, true
}

// Set overwrites the entry for key with the configured TTL.
func (c *RedisCache) Set(ctx domain.Context, key, text string) {
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, text, c.ttl).Err(); err != nil {
		slog.Warn("redis cache set failed", slog.Any("error", err))
	}
}

// Clear removes all cached responses under the assist prefix.
func (c *RedisCache) Clear(ctx domain.Context) {
	iter := c.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Warn("redis cache delete failed", slog.String("key", iter.Val()), slog.Any("error", err))
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("redis cache scan failed", slog.Any("error", err))
	}
}
