package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type lruItem struct {
	data      []byte
	expiresAt time.Time
}

// LRU is an in-process cache with per-entry expiry on top of a bounded LRU.
type LRU struct {
	lruCache *lru.Cache[string, lruItem]
	now      func() time.Time
}

func NewLRU(size int) (*LRU, error) {
	l, err := lru.New[string, lruItem](size)
	if err != nil {
		return nil, fmt.Errorf("create LRU cache: %w", err)
	}
	return &LRU{lruCache: l, now: time.Now}, nil
}

func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.lruCache.Add(key, lruItem{
		data:      value,
		expiresAt: c.now().Add(ttl),
	})
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil, false
	}

	// expired
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return nil, false
	}

	return val.data, true
}

func (c *LRU) Delete(_ context.Context, keys ...string) {
	for _, key := range keys {
		c.lruCache.Remove(key)
	}
}
