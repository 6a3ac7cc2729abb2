// Package cache keeps fetched series and computed frames for a bounded time so
// repeated scans within the TTL do not hit the data provider again.
package cache

import (
	"context"
	"time"
)

// DefaultTTL matches the five minute freshness window of the dashboards.
const DefaultTTL = 5 * time.Minute

// Store is a byte-oriented key/value store with per-entry expiry.
type Store interface {
	// Get returns the value and true on a hit; expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
