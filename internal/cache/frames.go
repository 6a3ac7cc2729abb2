package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/model"
)

// FrameCache memoises calculator.Compute. A frame is keyed by symbol, bar
// count and the date and close of its last bar, which is enough to tell two
// fetches of the same day apart from a refreshed one.
type FrameCache struct {
	store Store
	ttl   time.Duration
}

func NewFrameCache(store Store, ttl time.Duration) *FrameCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FrameCache{store: store, ttl: ttl}
}

func frameKey(series *model.PriceSeries) string {
	last, _ := series.Latest()
	return fmt.Sprintf("frame:%s:%d:%s:%g",
		strings.ToUpper(series.Symbol), series.Len(), last.Date.UTC().Format("2006-01-02"), last.Close)
}

// Compute has the signature of calculator.Compute so it can stand in for it.
func (f *FrameCache) Compute(series *model.PriceSeries) (*model.IndicatorFrame, error) {
	if series.Len() < calculator.MinBars {
		return calculator.Compute(series)
	}
	ctx := context.Background()
	key := frameKey(series)

	if raw, ok, err := f.store.Get(ctx, key); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		var frame model.IndicatorFrame
		if err := json.Unmarshal(raw, &frame); err == nil {
			return &frame, nil
		}
	}

	frame, err := calculator.Compute(series)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(frame); err != nil {
		log.Printf("[WARN] cache encode %s: %v", key, err)
	} else if err := f.store.Set(ctx, key, raw, f.ttl); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return frame, nil
}
