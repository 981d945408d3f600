package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Cache stores opaque byte payloads under string keys with a TTL.
// A miss and an expired entry look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// GetJSON decodes a cached JSON value. Undecodable entries are treated as misses.
func GetJSON[T any](ctx context.Context, c Cache, key string) (*T, bool) {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("cache: dropping undecodable entry", "key", key, "error", err)
		c.Delete(ctx, key)
		return nil, false
	}
	return &result, true
}

func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache: cannot encode value", "key", key, "error", err)
		return
	}
	c.Set(ctx, key, raw, ttl)
}
