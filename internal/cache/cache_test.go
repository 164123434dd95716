package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooldocs/internal/config"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr(), TTLSec: 60})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "classes", []string{"5A", "6B"}))
	assert.True(t, mr.Exists(keyPrefix+"classes"))

	var got []string
	require.NoError(t, c.Get(ctx, "classes", &got))
	assert.Equal(t, []string{"5A", "6B"}, got)
}

func TestRedisCache_MissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got []string
	assert.ErrorIs(t, c.Get(ctx, "classes", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "classes", []string{"5A"}))
	mr.FastForward(61 * time.Second)
	assert.ErrorIs(t, c.Get(ctx, "classes", &got), ErrMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "classes", []string{"5A"}))
	require.NoError(t, c.Delete(ctx, "classes"))
	require.NoError(t, c.Delete(ctx))

	var got []string
	assert.ErrorIs(t, c.Get(ctx, "classes", &got), ErrMiss)
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedis(ctx, config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestNewRedisWithClient_DefaultTTL(t *testing.T) {
	c := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), 0)
	defer c.Close()
	assert.Equal(t, 10*time.Minute, c.ttl)
}

func TestNoop(t *testing.T) {
	var n Noop
	var got []string
	assert.ErrorIs(t, n.Get(context.Background(), "k", &got), ErrMiss)
	assert.NoError(t, n.Set(context.Background(), "k", 1))
	assert.NoError(t, n.Delete(context.Background(), "k"))
}
