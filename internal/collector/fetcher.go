package collector

import (
	"context"
	"errors"
	"fmt"

	"MarketScanner/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	// Fetch returns up to lookback most recent daily bars for symbol, oldest first.
	Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error)
	Name() string
}

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrEmptyResponse  = errors.New("empty response")
	ErrInvalidSeries  = errors.New("invalid series")
)

// FetchError reports a failed fetch for one symbol from one source.
type FetchError struct {
	Source string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(source, symbol string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Source: source, Symbol: symbol, Err: err}
}

// finish trims bars to lookback and rejects malformed provider data.
func finish(source, symbol string, bars []model.PriceBar, lookback int) (*model.PriceSeries, error) {
	if len(bars) == 0 {
		return nil, fetchErr(source, symbol, ErrEmptyResponse)
	}
	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	series := &model.PriceSeries{Symbol: symbol, Bars: bars}
	if err := series.Validate(); err != nil {
		return nil, fetchErr(source, symbol, fmt.Errorf("%w: %v", ErrInvalidSeries, err))
	}
	return series, nil
}
