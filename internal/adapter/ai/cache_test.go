package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCachePutGet(t *testing.T) {
	t.Parallel()
	c := NewMemoryCache(5 * time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", "v")
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	t.Parallel()
	c := NewMemoryCache(5 * time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "k", "v")

	now = base.Add(4*time.Minute + 59*time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok, "entry inside TTL must be served")

	now = base.Add(5 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry at TTL boundary is expired")

	// A fresh Set resets the clock on the entry.
	c.Set(ctx, "k", "v2")
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	t.Parallel()
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k", "first")
	c.Set(ctx, "k", "second")
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestMemoryCacheClear(t *testing.T) {
	t.Parallel()
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	c.Clear(ctx)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}
