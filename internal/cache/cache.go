package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/harshgondal/Job-Finder/internal/logger"
)

// Cache stores JSON values on top of a Store. No method returns an error:
// a failing backend degrades to an uncached pipeline.
type Cache struct {
	store Store
}

// New wraps store. A nil store gives a cache that never hits.
func New(store Store) *Cache {
	return &Cache{store: store}
}

// GetJSON decodes the value under key into dest and reports whether it did.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.store == nil {
		return false
	}
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "cache get failed: key=%s, error=%v", key, err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.CtxWarn(ctx, "cache entry undecodable, evicting: key=%s, error=%v", key, err)
		_ = c.store.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes value under key with ttl and reports success.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	if c == nil || c.store == nil {
		return false
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.CtxWarn(ctx, "cache encode failed: key=%s, error=%v", key, err)
		return false
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		logger.CtxWarn(ctx, "cache set failed: key=%s, error=%v", key, err)
		return false
	}
	return true
}

// Delete removes key and reports success.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if c == nil || c.store == nil {
		return false
	}
	if err := c.store.Delete(ctx, key); err != nil {
		logger.CtxWarn(ctx, "cache delete failed: key=%s, error=%v", key, err)
		return false
	}
	return true
}

// Claim takes a short-lived claim on key when the backend supports it.
// ok is false only when another holder owns the claim; backends without
// claim support, and backend failures, grant it.
func (c *Cache) Claim(ctx context.Context, key string, ttl time.Duration) (ok bool) {
	if c == nil || c.store == nil {
		return true
	}
	claimer, supported := c.store.(Claimer)
	if !supported {
		return true
	}
	granted, err := claimer.Claim(ctx, key, ttl)
	if err != nil {
		logger.CtxWarn(ctx, "cache claim failed, proceeding: key=%s, error=%v", key, err)
		return true
	}
	return granted
}
