package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/model"
	"MarketScanner/internal/model/modeltest"
	"MarketScanner/internal/strategy"
)

func symbolsOf(results []model.ScanResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Symbol
	}
	return out
}

func TestScan_SkipsShortSeriesAndKeepsOthers(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Set(modeltest.Rising("SHORT", 30, 10, 0.01))
	m.Set(modeltest.Rising("UP", 260, 10, 0.005))
	m.Set(modeltest.Wave("WAVE", 260))

	s := New(m)
	rep, err := s.Run(context.Background(), Request{
		Symbols: []string{"SHORT", "UP", "WAVE"},
		Score:   strategy.Classic(),
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"UP", "WAVE"}, symbolsOf(rep.Results))
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, "SHORT", rep.Skipped[0].Symbol)
	assert.ErrorIs(t, rep.Skipped[0].Err, ErrTooFewBars)
	assert.Equal(t, 3, rep.Requested)
	assert.Equal(t, 2, rep.Evaluated)
}

func TestScan_IsolatesFetchFailures(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Fail("DEAD", collector.ErrSymbolNotFound)

	results, err := New(m).Scan(context.Background(), []string{"AAPL", "DEAD", "MSFT"}, Filters{}, strategy.Weighted())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbolsOf(results))
}

func TestScan_DedupesSymbols(t *testing.T) {
	m := collector.NewMockFetcher()
	results, err := New(m).Scan(context.Background(), []string{"aapl", "AAPL", " AAPL ", "", "msft"}, Filters{}, strategy.Classic())
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Equal(t, 1, m.Calls("AAPL"))
	assert.Equal(t, []string{"AAPL", "MSFT"}, Dedupe([]string{"aapl", "AAPL", " AAPL ", "", "msft"}))
}

func TestScan_RanksByScoreThenSymbol(t *testing.T) {
	m := collector.NewMockFetcher()
	syms := []string{"D", "C", "B", "A", "E", "F", "G", "H"}

	results, err := New(m).Scan(context.Background(), syms, Filters{}, strategy.Classic())
	require.NoError(t, err)
	require.Len(t, results, len(syms))

	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		assert.GreaterOrEqual(t, prev.Score, cur.Score)
		if prev.Score == cur.Score {
			assert.Less(t, prev.Symbol, cur.Symbol)
		}
	}

	// the ranking does not depend on worker scheduling
	again, err := New(m).Scan(context.Background(), syms, Filters{}, strategy.Classic())
	require.NoError(t, err)
	assert.Equal(t, symbolsOf(results), symbolsOf(again))
}

func TestScan_AppliesFilters(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Set(modeltest.Rising("UP", 260, 10, 0.005))
	m.Set(modeltest.Flat("FLAT", 260, 10))

	results, err := New(m).Scan(context.Background(), []string{"UP", "FLAT"}, Filters{AboveSMA200: true}, strategy.Classic())
	require.NoError(t, err)
	assert.Equal(t, []string{"UP"}, symbolsOf(results))
}

func TestScan_InvalidRequest(t *testing.T) {
	m := collector.NewMockFetcher()
	s := New(m)

	bad := strategy.Classic()
	bad.VolumePoints = -5
	_, err := s.Scan(context.Background(), []string{"AAPL"}, Filters{}, bad)
	require.Error(t, err)

	_, err = s.Run(context.Background(), Request{Symbols: []string{"AAPL"}, Score: strategy.Classic(), Sort: "alphabet"})
	require.Error(t, err)

	assert.Zero(t, m.Calls("AAPL"), "nothing fetched for an invalid request")
}

func TestScan_EmptyBatch(t *testing.T) {
	results, err := New(collector.NewMockFetcher()).Scan(context.Background(), nil, Filters{}, strategy.Classic())
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

// funcFetcher adapts a function to collector.Fetcher.
type funcFetcher func(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error)

func (f funcFetcher) Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
	return f(ctx, symbol, lookback)
}
func (f funcFetcher) Name() string { return "func" }

func TestScan_PerSymbolTimeout(t *testing.T) {
	mock := collector.NewMockFetcher()
	f := funcFetcher(func(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
		if symbol == "HANG" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return mock.Fetch(ctx, symbol, lookback)
	})

	s := New(f)
	s.Timeout = 20 * time.Millisecond
	rep, err := s.Run(context.Background(), Request{Symbols: []string{"AAPL", "HANG", "MSFT"}, Score: strategy.Classic()})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbolsOf(rep.Results))
	require.Len(t, rep.Skipped, 1)
	assert.ErrorIs(t, rep.Skipped[0].Err, context.DeadlineExceeded)
}

func TestScan_CancellationReturnsPartialResults(t *testing.T) {
	mock := collector.NewMockFetcher()
	f := funcFetcher(func(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return mock.Fetch(ctx, symbol, lookback)
	})

	syms := make([]string, 50)
	for i := range syms {
		syms[i] = string(rune('A'+i%26)) + string(rune('A'+i/26))
	}

	s := New(f)
	s.Workers = 1
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results, err := s.Scan(ctx, syms, Filters{}, strategy.Classic())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, results)
	assert.Less(t, len(results), len(syms))
}

func TestScan_BoundsConcurrency(t *testing.T) {
	mock := collector.NewMockFetcher()
	var inFlight, peak int32
	var mu sync.Mutex
	f := funcFetcher(func(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return mock.Fetch(ctx, symbol, lookback)
	})

	syms := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	s := New(f)
	s.Workers = 3
	results, err := s.Scan(context.Background(), syms, Filters{}, strategy.Classic())
	require.NoError(t, err)
	assert.Len(t, results, len(syms))
	assert.LessOrEqual(t, peak, int32(3))
}

func TestBuildResult(t *testing.T) {
	frame := modeltest.Frame("ABC",
		model.Snapshot{PriceBar: model.PriceBar{Open: 99, High: 100, Low: 98, Close: 99, Volume: 1}},
		model.Snapshot{
			PriceBar:  model.PriceBar{Open: 100, High: 103, Low: 99, Close: 102, Volume: 3_000_000},
			SMA200:    modeltest.V(85),
			RSI:       modeltest.V(55),
			VolumeSMA: modeltest.V(1_000_000),
			ATR:       modeltest.V(2),
		},
	)

	r := BuildResult(frame, strategy.Classic())
	assert.Equal(t, "ABC", r.Symbol)
	assert.Equal(t, 102.0, r.Price)
	assert.InDelta(t, 2.0, r.ChangePct, 1e-9)
	assert.InDelta(t, 3.0, r.VolumeRatio.Float64, 1e-9)
	assert.InDelta(t, 20.0, r.DistanceFromSMA200Pct.Float64, 1e-9)
	assert.InDelta(t, 98.0, r.StopLoss.Float64, 1e-9)
	assert.InDelta(t, 108.0, r.Target.Float64, 1e-9)
	assert.False(t, r.Support.Valid, "two bars are short of the support window")
	assert.Equal(t, 3, r.Score) // SMA200, RSI band, volume
	assert.Equal(t, model.RatingBuy, r.Rating)
	assert.Equal(t, []model.SignalKind{model.SignalVolumeSpike}, []model.SignalKind{r.Signals[0].Kind})
}

func TestChangePct_ScanIsIntradayAnalyzeIsDayOverDay(t *testing.T) {
	series := modeltest.FromCloses("GAP", []float64{100, 100, 110}, nil)
	last := &series.Bars[2]
	last.Open, last.Low = 105, 104 // gapped up from 100, closed at 110

	mock := collector.NewMockFetcher()
	mock.Set(series)

	a, err := collector.NewCollector(mock).Analyze(context.Background(), "GAP", strategy.Classic())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, a.ChangePct.Float64, 1e-9, "analysis: close vs previous close")

	r := BuildResult(a.Frame, strategy.Classic())
	assert.InDelta(t, 100*(110.0-105)/105, r.ChangePct, 1e-9, "scan: close vs open")
}

func TestScan_ErrorsFromContextBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := New(collector.NewMockFetcher()).Scan(ctx, []string{"AAPL"}, Filters{}, strategy.Classic())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, results)
}
