package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/travel-backoffice/internal/cache"
)

type payload struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

func TestJSONRoundTripWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewJSON(client, time.Minute)
	ctx := context.Background()
	key := cache.RecordKey("deposit", "D-1")
	require.Equal(t, "backoffice:record:deposit:D-1", key)

	var got payload
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, c.Set(ctx, key, payload{Name: "deposit", Total: 3885}))
	require.Equal(t, time.Minute, mr.TTL(key))

	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, payload{Name: "deposit", Total: 3885}, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, found)
}

func TestJSONDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewJSON(client, 0)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, cache.SessionKey("s1"), payload{Name: "x"}))

	removed, err := c.Delete(ctx, cache.SessionKey("s1"))
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = c.Delete(ctx, cache.SessionKey("s1"))
	require.NoError(t, err)
	require.False(t, removed)
}

func TestJSONDecodeError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set("backoffice:session:bad", "{not json"))

	var got payload
	_, err := cache.NewJSON(client, time.Minute).Get(context.Background(), cache.SessionKey("bad"), &got)
	require.Error(t, err)
}

func TestDisabledCacheIsEmpty(t *testing.T) {
	var c *cache.JSON
	ctx := context.Background()
	require.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, "k", 1))
	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	require.False(t, found)

	require.False(t, cache.NewJSON(nil, time.Second).Enabled())
}
