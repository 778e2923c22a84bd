package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSON stores JSON payloads in Redis under a fixed TTL. A nil *JSON or one
// without a client behaves as an always-empty cache.
type JSON struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewJSON constructs a JSON cache. A non-positive ttl stores keys without expiry.
func NewJSON(client redis.UniversalClient, ttl time.Duration) *JSON {
	return &JSON{client: client, ttl: max(ttl, 0)}
}

// Enabled reports whether the cache is backed by Redis.
func (c *JSON) Enabled() bool {
	return c != nil && c.client != nil
}

// TTL returns the expiry applied by Set.
func (c *JSON) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Get unmarshals the payload at key into dst and reports whether the key existed.
func (c *JSON) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set serialises v and stores it with the configured TTL.
func (c *JSON) Set(ctx context.Context, key string, v any) error {
	if !c.Enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Delete removes key and reports whether it existed.
func (c *JSON) Delete(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() || key == "" {
		return false, nil
	}
	n, err := c.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache delete %s: %w", key, err)
	}
	return n > 0, nil
}
