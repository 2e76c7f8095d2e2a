package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/tripmind/assistant/internal/infrastructure/cache/redis"
)

func setupMiniredis(t *testing.T, prefix string) (*miniredis.Miniredis, *rediscache.Cache) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := rediscache.NewCache(rediscache.Config{
		Host:       mr.Host(),
		Port:       mr.Port(),
		DefaultTTL: time.Minute,
		KeyPrefix:  prefix,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return mr, c
}

func TestNewCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	c, err := rediscache.NewCache(rediscache.Config{Host: host, Port: port})

	assert.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestCache_SetAndGet(t *testing.T) {
	mr, c := setupMiniredis(t, "tripmind:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:u1:s1", []byte("value"), 0))

	got, err := c.Get(ctx, "session:u1:s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	// Keys are namespaced and a zero TTL means the default.
	assert.True(t, mr.Exists("tripmind:session:u1:s1"))
	assert.Equal(t, time.Minute, mr.TTL("tripmind:session:u1:s1"))
}

func TestCache_GetMissing(t *testing.T) {
	_, c := setupMiniredis(t, "")

	got, err := c.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_SetNX(t *testing.T) {
	_, c := setupMiniredis(t, "")
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", []byte("first"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "k", []byte("second"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestCache_Delete(t *testing.T) {
	_, c := setupMiniredis(t, "")
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	deleted, err := c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCache_DeletePattern(t *testing.T) {
	mr, c := setupMiniredis(t, "tripmind:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:u1:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "session:u1:b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "session:u2:a", []byte("3"), time.Minute))
	require.NoError(t, mr.Set("other:key", "4"))

	deleted, err := c.DeletePattern(ctx, "session:u1:*")

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	keys := mr.Keys()
	assert.Contains(t, keys, "tripmind:session:u2:a")
	assert.Contains(t, keys, "other:key")
	assert.NotContains(t, keys, "tripmind:session:u1:a")
}

func TestCache_TTLExpiration(t *testing.T) {
	mr, c := setupMiniredis(t, "")
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))

	mr.FastForward(2 * time.Second)

	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Ping(t *testing.T) {
	_, c := setupMiniredis(t, "")

	assert.NoError(t, c.Ping(context.Background()))
}
