// Package cache is the key-value layer every pipeline stage reads through.
// Backends store raw bytes with a TTL; Cache wraps them with JSON encoding
// and turns every backend failure into a miss.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key-value backend with per-key expiry.
// Get returns found=false for missing or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Claimer is implemented by stores that support set-if-absent. It backs
// cross-instance claims on match keys.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
