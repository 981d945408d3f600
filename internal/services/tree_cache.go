package services

import (
	"context"
	"fmt"
	"time"

	"forumhub/internal/cache"
	"forumhub/internal/metrics"

	"github.com/google/uuid"
)

// TreeCache holds built comment trees per post. A nil TreeCache disables caching.
//
// Entries are keyed by a per-post generation. Invalidate moves the post to a
// new generation, so a tree built from a read that raced with a write is
// stored under a generation nobody looks up again.
type TreeCache struct {
	c   cache.Cache
	ttl time.Duration
}

func NewTreeCache(c cache.Cache, ttl time.Duration) *TreeCache {
	if c == nil {
		return nil
	}
	return &TreeCache{c: c, ttl: ttl}
}

func generationKey(postID uint) string {
	return fmt.Sprintf("comments:generation:%d", postID)
}

func treeKey(postID uint, generation string, nested bool) string {
	mode := "flat"
	if nested {
		mode = "nested"
	}
	return fmt.Sprintf("comments:tree:%d:%s:%s", postID, generation, mode)
}

// Generation returns the post's current generation, starting one if none is cached.
// Callers must take it before reading the comments they are about to cache.
func (t *TreeCache) Generation(ctx context.Context, postID uint) string {
	if t == nil {
		return ""
	}
	if raw, ok := t.c.Get(ctx, generationKey(postID)); ok {
		return string(raw)
	}
	return t.bump(ctx, postID)
}

func (t *TreeCache) bump(ctx context.Context, postID uint) string {
	generation := uuid.NewString()
	// Outlive the trees filed under it.
	t.c.Set(ctx, generationKey(postID), []byte(generation), 2*t.ttl)
	return generation
}

func (t *TreeCache) Get(ctx context.Context, postID uint, generation string, nested bool) ([]*CommentNode, bool) {
	if t == nil {
		return nil, false
	}
	tree, ok := cache.GetJSON[[]*CommentNode](ctx, t.c, treeKey(postID, generation, nested))
	if !ok {
		metrics.CommentTreeCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CommentTreeCache.WithLabelValues("hit").Inc()
	return *tree, true
}

func (t *TreeCache) Set(ctx context.Context, postID uint, generation string, nested bool, tree []*CommentNode) {
	if t == nil {
		return
	}
	cache.SetJSON(ctx, t.c, treeKey(postID, generation, nested), tree, t.ttl)
}

func (t *TreeCache) Invalidate(ctx context.Context, postID uint) {
	if t == nil {
		return
	}
	t.bump(ctx, postID)
}
