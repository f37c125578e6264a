package ai

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, ttl), mr
}

func TestRedisCachePutGet(t *testing.T) {
	t.Parallel()
	c, _ := newTestRedisCache(t, 5*time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", "v")
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestRedisCacheExpiry(t *testing.T) {
	t.Parallel()
	c, mr := newTestRedisCache(t, 5*time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	mr.FastForward(5*time.Minute + time.Second)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCacheClear(t *testing.T) {
	t.Parallel()
	c, mr := newTestRedisCache(t, 5*time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	// Keys outside the assist prefix survive a Clear.
	mr.Set("other", "keep")

	c.Clear(ctx)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	assert.True(t, mr.Exists("other"))
}
