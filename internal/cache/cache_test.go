package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/collector"
	"MarketScanner/internal/model/modeltest"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStore_TTL(t *testing.T) {
	clk := &clock{t: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clk.now
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clk.advance(time.Minute)
	_, ok, _ = s.Get(ctx, "k")
	assert.True(t, ok, "still valid at the expiry instant")

	clk.advance(time.Second)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, s.Len(), "expired entry evicted on read")

	_, ok, _ = s.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemoryStore_SetSweepsExpired(t *testing.T) {
	clk := &clock{t: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clk.now
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "series:AAPL:2024-03-01", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "series:MSFT:2024-03-01", []byte("b"), time.Hour))
	assert.Equal(t, 2, s.Len())

	// next day: the old keys are never read again
	clk.advance(24 * time.Hour)
	require.NoError(t, s.Set(ctx, "series:AAPL:2024-03-02", []byte("c"), 10*time.Second))
	assert.Equal(t, 1, s.Len())

	// within the interval no sweep runs
	clk.advance(30 * time.Second)
	require.NoError(t, s.Set(ctx, "series:MSFT:2024-03-02", []byte("d"), time.Minute))
	assert.Equal(t, 2, s.Len())

	clk.advance(sweepInterval)
	require.NoError(t, s.Set(ctx, "series:NVDA:2024-03-02", []byte("e"), time.Minute))
	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.Get(ctx, "series:MSFT:2024-03-02")
	assert.True(t, ok)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) Close() error { return nil }

func TestCachedFetcher(t *testing.T) {
	mock := collector.NewMockFetcher()
	mock.Set(modeltest.Wave("AAPL", 300))
	clk := &clock{t: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)}

	store := NewMemoryStore()
	store.now = clk.now
	f := NewCachedFetcher(mock, store, time.Hour)
	f.now = clk.now
	ctx := context.Background()

	first, err := f.Fetch(ctx, "AAPL", 250)
	require.NoError(t, err)
	second, err := f.Fetch(ctx, "aapl", 250)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.Calls("AAPL"), "second call served from cache")
	assert.Equal(t, first.Len(), second.Len())
	for i := range first.Bars {
		assert.True(t, first.Bars[i].Date.Equal(second.Bars[i].Date))
		assert.Equal(t, first.Bars[i].Close, second.Bars[i].Close)
	}

	_, err = f.Fetch(ctx, "AAPL", 100)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls("AAPL"), "different lookback is a different entry")

	clk.advance(10 * time.Hour) // next calendar day
	_, err = f.Fetch(ctx, "AAPL", 250)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.Calls("AAPL"))
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	mock := collector.NewMockFetcher()
	mock.Fail("GONE", collector.ErrSymbolNotFound)
	f := NewCachedFetcher(mock, NewMemoryStore(), 0)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), "GONE", 50)
		assert.ErrorIs(t, err, collector.ErrSymbolNotFound)
	}
	assert.Equal(t, 2, mock.Calls("GONE"))
}

func TestCachedFetcher_StoreFailureFallsThrough(t *testing.T) {
	mock := collector.NewMockFetcher()
	f := NewCachedFetcher(mock, failingStore{}, time.Minute)

	series, err := f.Fetch(context.Background(), "MSFT", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, series.Len())
}

func TestFrameCache(t *testing.T) {
	store := NewMemoryStore()
	fc := NewFrameCache(store, time.Minute)
	series := modeltest.Wave("WAVE", 220)

	want, err := calculator.Compute(series)
	require.NoError(t, err)

	first, err := fc.Compute(series)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	cached, err := fc.Compute(series)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	require.Equal(t, want.Len(), cached.Len())
	assert.Equal(t, want.RSI, cached.RSI)
	assert.Equal(t, want.MACDSignal, cached.MACDSignal)
	assert.Equal(t, want.SMA200, first.SMA200)
	assert.False(t, cached.SMA200[198].Valid, "undefined survives the round trip")

	// a refreshed last bar is a different entry
	longer := modeltest.Wave("WAVE", 221)
	_, err = fc.Compute(longer)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	_, err = fc.Compute(modeltest.Flat("ONE", 1, 5))
	assert.ErrorIs(t, err, calculator.ErrInsufficientData)
}
