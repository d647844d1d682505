// Package cache is a read-through, write-invalidate cache for the expensive
// article listing queries (public published listing and per-user merged
// listing). Entries are pure derived data: only the durable article store
// can reconstruct them, and dropping any entry at any time is always safe.
//
// Key layout:
//
//	cache:articles:published:p{page}:l{limit}         -> JSON {items, total}
//	cache:articles:merged:{user}:p{page}:l{limit}     -> JSON {items, total}
//
// A failing cache store must never fail a request: lookups degrade to a
// miss, writes and invalidations are best-effort and only logged.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/kv"
)

const (
	publishedPrefix = "cache:articles:published"
	mergedPrefix    = "cache:articles:merged"
)

// Page is one cached page of a listing query.
type Page struct {
	Items []domain.Article `json:"items"`
	Total int64            `json:"total"`
}

// Cache wraps the volatile store with fixed-TTL page entries.
type Cache struct {
	kv  kv.Store
	ttl time.Duration
}

// New returns a Cache writing through kvs with the given entry TTL.
func New(kvs kv.Store, ttl time.Duration) *Cache {
	return &Cache{kv: kvs, ttl: ttl}
}

// PublishedKey is the deterministic cache key for a published-listing page.
func PublishedKey(page, limit int) string {
	return fmt.Sprintf("%s:p%d:l%d", publishedPrefix, page, limit)
}

// MergedKey is the deterministic cache key for one user's merged-listing page.
func MergedKey(userID string, page, limit int) string {
	return fmt.Sprintf("%s:%s:p%d:l%d", mergedPrefix, userID, page, limit)
}

// GetPage returns the cached page under key. Any store or decode failure is
// reported as a miss so the caller falls back to the durable store.
func (c *Cache) GetPage(ctx context.Context, key string) (Page, bool) {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrMiss) {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		return Page{}, false
	}
	var p Page
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, treating as miss")
		return Page{}, false
	}
	return p, true
}

// SetPage stores the page under key with the configured TTL, best-effort.
func (c *Cache) SetPage(ctx context.Context, key string, p Page) {
	raw, err := json.Marshal(p)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.kv.Set(ctx, key, string(raw), c.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// InvalidatePublished drops every cached published-listing page.
func (c *Cache) InvalidatePublished(ctx context.Context) {
	c.invalidate(ctx, publishedPrefix+":*")
}

// InvalidateMerged drops every cached merged-listing page for the given user.
func (c *Cache) InvalidateMerged(ctx context.Context, userID string) {
	c.invalidate(ctx, fmt.Sprintf("%s:%s:*", mergedPrefix, userID))
}

func (c *Cache) invalidate(ctx context.Context, pattern string) {
	keys, err := c.kv.Keys(ctx, pattern)
	if err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("cache invalidation scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.kv.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("cache invalidation delete failed")
	}
}
