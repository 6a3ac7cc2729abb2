package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/model"
)

// CachedFetcher wraps a collector.Fetcher. Entries are keyed by symbol,
// lookback and the calendar day of the request, so a new trading day always
// misses.
type CachedFetcher struct {
	next  collector.Fetcher
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewCachedFetcher(next collector.Fetcher, store Store, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedFetcher{next: next, store: store, ttl: ttl, now: time.Now}
}

func (c *CachedFetcher) Name() string { return c.next.Name() }

func (c *CachedFetcher) key(symbol string, lookback int) string {
	return fmt.Sprintf("series:%s:%s:%d:%s",
		c.next.Name(), strings.ToUpper(symbol), lookback, c.now().UTC().Format("2006-01-02"))
}

// Fetch serves from the store when possible. Store failures are logged and
// fall through to the wrapped fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
	key := c.key(symbol, lookback)

	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		var series model.PriceSeries
		if err := json.Unmarshal(raw, &series); err == nil {
			return &series, nil
		}
		log.Printf("[WARN] cache entry %s unreadable, refetching", key)
	}

	series, err := c.next.Fetch(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(series); err != nil {
		log.Printf("[WARN] cache encode %s: %v", key, err)
	} else if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return series, nil
}
