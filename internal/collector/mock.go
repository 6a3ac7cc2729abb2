package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"MarketScanner/internal/model"
	"MarketScanner/internal/model/modeltest"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without an entry in Series get a deterministic generated series.
type MockFetcher struct {
	mu     sync.Mutex
	Series map[string]*model.PriceSeries
	Errors map[string]error
	calls  map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Series: make(map[string]*model.PriceSeries),
		Errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// Set registers a fixed series for its symbol.
func (m *MockFetcher) Set(series *model.PriceSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Series[strings.ToUpper(series.Symbol)] = series
}

// Fail makes every fetch of symbol return err.
func (m *MockFetcher) Fail(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[strings.ToUpper(symbol)] = err
}

// Calls reports how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[strings.ToUpper(symbol)]
}

func (m *MockFetcher) Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchErr(m.Name(), symbol, err)
	}
	key := strings.ToUpper(symbol)

	m.mu.Lock()
	m.calls[key]++
	series, ok := m.Series[key]
	err := m.Errors[key]
	m.mu.Unlock()

	if err != nil {
		return nil, fetchErr(m.Name(), symbol, err)
	}
	if !ok {
		series = generateSeries(key, lookback)
	}

	bars := make([]model.PriceBar, len(series.Bars))
	copy(bars, series.Bars)
	return finish(m.Name(), key, bars, lookback)
}

// generateSeries derives a wave series whose level depends on the symbol, so
// different tickers rank differently in a scan.
func generateSeries(symbol string, lookback int) *model.PriceSeries {
	if lookback <= 0 {
		lookback = 250
	}
	h := fnv.New32a()
	fmt.Fprint(h, symbol)
	scale := 0.5 + float64(h.Sum32()%1000)/500

	wave := modeltest.Wave(symbol, lookback)
	closes := make([]float64, len(wave.Bars))
	volumes := make([]int64, len(wave.Bars))
	for i, b := range wave.Bars {
		closes[i] = b.Close * scale
		volumes[i] = b.Volume
	}
	return modeltest.FromCloses(symbol, closes, volumes)
}
