package app

import (
	"context"
	"log"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/model"
	"MarketScanner/internal/scanner"
)

// SeriesSaver persists fetched series. *collector.PostgresFetcher satisfies it.
type SeriesSaver interface {
	SaveSeries(ctx context.Context, series *model.PriceSeries) error
}

// IngestResult counts what Ingest stored.
type IngestResult struct {
	Symbols int
	Bars    int
	Failed  []scanner.SymbolError
}

// Ingest copies lookback bars per symbol from src into dst. A failing symbol
// is recorded and skipped; only cancellation stops the run early.
func Ingest(ctx context.Context, src collector.Fetcher, dst SeriesSaver, symbols []string, lookback int) (*IngestResult, error) {
	res := &IngestResult{}
	for _, symbol := range scanner.Dedupe(symbols) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		series, err := src.Fetch(ctx, symbol, lookback)
		if err == nil {
			err = dst.SaveSeries(ctx, series)
		}
		if err != nil {
			log.Printf("[WARN] ingest %s: %v", symbol, err)
			res.Failed = append(res.Failed, scanner.SymbolError{Symbol: symbol, Err: err})
			continue
		}
		res.Symbols++
		res.Bars += series.Len()
	}
	log.Printf("[INFO] ingested %d bars for %d symbols from %s, %d failed", res.Bars, res.Symbols, src.Name(), len(res.Failed))
	return res, nil
}
