package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fnhub/ingest/common/logger"
	rediscommon "github.com/fnhub/ingest/common/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(logger.Discard())
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(logger.Discard())
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("2"), 0))

	now = now.Add(2 * time.Second)

	_, ok, _ := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)

	c.sweep()
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(logger.Discard())
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	log := logger.Discard()
	c := NewRedisCache(rediscommon.NewClient(rdb, log), "ingest:", log)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "app:a1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "app:a1", []byte(`{"appid":"a1"}`), time.Minute))
	assert.True(t, mr.Exists("ingest:app:a1"))

	val, ok, err := c.Get(ctx, "app:a1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"appid":"a1"}`, string(val))

	mr.FastForward(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "app:a1")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "app:a1", []byte("x"), 0))
	require.NoError(t, c.Delete(ctx, "app:a1"))
	assert.False(t, mr.Exists("ingest:app:a1"))
}
