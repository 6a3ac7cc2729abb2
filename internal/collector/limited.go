package collector

import (
	"context"

	"golang.org/x/time/rate"

	"MarketScanner/internal/model"
)

// RateLimitedFetcher spaces calls to the wrapped fetcher with a token bucket.
type RateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher allows perSecond requests with the given burst.
// A non-positive rate disables limiting.
func NewRateLimitedFetcher(next Fetcher, perSecond float64, burst int) *RateLimitedFetcher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedFetcher{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (f *RateLimitedFetcher) Name() string { return f.next.Name() }

func (f *RateLimitedFetcher) Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fetchErr(f.Name(), symbol, err)
	}
	return f.next.Fetch(ctx, symbol, lookback)
}
