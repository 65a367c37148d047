package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinylink-go/constant"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	pool := &redis.Pool{
		MaxIdle: 2,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", mr.Addr())
		},
	}
	t.Cleanup(func() { _ = pool.Close() })
	return NewRedisCache(pool, time.Minute, 5*time.Second), mr
}

func newLocalCache(t *testing.T) *LocalCache {
	t.Helper()
	c, err := NewLocalCache(100, time.Minute, time.Minute)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func sampleEntry(code string) *Entry {
	return &Entry{
		LinkID:          7,
		Code:            code,
		TargetURL:       "https://example.com/" + code,
		CreatedAt:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		ExpirationHours: 2,
	}
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "h")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, sampleEntry("h")))
	assert.True(t, mr.Exists(constant.GetLinkCodeKey("h")))
	assert.Equal(t, time.Minute, mr.TTL(constant.GetLinkCodeKey("h")))

	got, err := c.Get(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.LinkID)
	assert.Equal(t, "https://example.com/h", got.TargetURL)
	assert.True(t, got.CreatedAt.Equal(sampleEntry("h").CreatedAt))
	assert.False(t, got.Missing)

	require.NoError(t, c.Delete(ctx, "h"))
	_, err = c.Get(ctx, "h")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_NegativeEntryExpires(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMissing(ctx, "gone"))
	got, err := c.Get(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, got.Missing)

	mr.FastForward(6 * time.Second)
	_, err = c.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_ConnectionError(t *testing.T) {
	c, mr := newRedisCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestLocalCache_SetGetDelete(t *testing.T) {
	c := newLocalCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, sampleEntry("k")))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/k", got.TargetURL)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestChain_BackfillsEarlierLayers(t *testing.T) {
	local := newLocalCache(t)
	shared, _ := newRedisCache(t)
	chain := NewChain(local, shared)
	ctx := context.Background()

	require.NoError(t, shared.Set(ctx, sampleEntry("m")))

	got, err := chain.Get(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/m", got.TargetURL)

	fromLocal, err := local.Get(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, got.TargetURL, fromLocal.TargetURL)

	require.NoError(t, chain.Delete(ctx, "m"))
	_, err = chain.Get(ctx, "m")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain()
	ctx := context.Background()

	require.NoError(t, chain.Set(ctx, sampleEntry("a")))
	_, err := chain.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Zero(t, chain.Len())
}

func TestEntry_ExpiresAt(t *testing.T) {
	e := sampleEntry("x")
	expires := time.Date(2025, 1, 2, 5, 4, 5, 0, time.UTC)
	assert.Equal(t, expires, e.ExpiresAt())
	assert.False(t, e.IsExpiredAt(expires.Add(-time.Second)))
	assert.True(t, e.IsExpiredAt(expires))
}
