// Package scanner runs the fetch, compute, evaluate, filter and rank pipeline
// over a batch of symbols with bounded concurrency.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/collector"
	"MarketScanner/internal/logging"
	"MarketScanner/internal/model"
	"MarketScanner/internal/strategy"
)

var scanLog = logging.New("scan")

// Defaults.
const (
	DefaultWorkers  = 4
	DefaultMinBars  = 50
	DefaultLookback = 260
	DefaultTimeout  = 20 * time.Second
)

// ErrTooFewBars marks a symbol below the scan-eligibility floor.
var ErrTooFewBars = errors.New("too few bars")

// Scanner holds no state between scans; its fields are settings only.
type Scanner struct {
	Fetcher  collector.Fetcher
	Compute  collector.ComputeFunc
	Workers  int
	MinBars  int
	Lookback int
	Timeout  time.Duration // per symbol fetch
	Sort     SortKey
}

// New returns a Scanner with default settings.
func New(fetcher collector.Fetcher) *Scanner {
	return &Scanner{
		Fetcher:  fetcher,
		Compute:  calculator.Compute,
		Workers:  DefaultWorkers,
		MinBars:  DefaultMinBars,
		Lookback: DefaultLookback,
		Timeout:  DefaultTimeout,
		Sort:     SortScore,
	}
}

// Request describes one scan.
type Request struct {
	Symbols []string
	Filters Filters
	Score   strategy.ScoreConfig
	Sort    SortKey // empty: the scanner's default
}

// SymbolError is a per-symbol failure isolated from the rest of the batch.
type SymbolError struct {
	Symbol string
	Err    error
}

// Report is the full outcome of a scan.
type Report struct {
	Started   time.Time
	Finished  time.Time
	Requested int // unique symbols
	Evaluated int // symbols that reached the evaluator
	Results   []model.ScanResult
	Skipped   []SymbolError
}

// Scan evaluates symbols and returns the ranked results that pass filters.
// When ctx is cancelled, the results gathered so far are returned with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, symbols []string, filters Filters, cfg strategy.ScoreConfig) ([]model.ScanResult, error) {
	rep, err := s.Run(ctx, Request{Symbols: symbols, Filters: filters, Score: cfg})
	if rep == nil {
		return nil, err
	}
	return rep.Results, err
}

// Run is Scan with a per-request sort key and the skip report.
func (s *Scanner) Run(ctx context.Context, req Request) (*Report, error) {
	if err := req.Score.Validate(); err != nil {
		return nil, fmt.Errorf("invalid score config: %w", err)
	}
	sortKey := req.Sort
	if sortKey == "" {
		sortKey = s.Sort
	}
	if _, err := ParseSortKey(string(sortKey)); err != nil {
		return nil, err
	}

	symbols := Dedupe(req.Symbols)
	rep := &Report{Started: time.Now(), Requested: len(symbols), Results: []model.ScanResult{}}

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	jobs := make(chan string)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				res, err := s.scanOne(ctx, symbol, req.Score)

				mu.Lock()
				switch {
				case err != nil:
					log.Printf("[WARN] scan %s: %v", symbol, err)
					rep.Skipped = append(rep.Skipped, SymbolError{Symbol: symbol, Err: err})
				default:
					rep.Evaluated++
					if req.Filters.Match(res) {
						rep.Results = append(rep.Results, *res)
					} else {
						scanLog.Debug("filtered out", "symbol", symbol, "score", res.Score)
					}
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()

	Rank(rep.Results, sortKey)
	rep.Finished = time.Now()
	log.Printf("[INFO] Scan finished: %d/%d symbols evaluated, %d matched, %d skipped in %s",
		rep.Evaluated, rep.Requested, len(rep.Results), len(rep.Skipped), rep.Finished.Sub(rep.Started).Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Scanner) scanOne(ctx context.Context, symbol string, cfg strategy.ScoreConfig) (*model.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lookback := s.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	minBars := s.MinBars
	if minBars <= 0 {
		minBars = DefaultMinBars
	}

	fctx, cancel := context.WithTimeout(ctx, timeout)
	series, err := s.Fetcher.Fetch(fctx, symbol, lookback)
	cancel()
	if err != nil {
		return nil, err
	}
	if series.Len() < minBars {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrTooFewBars, minBars, series.Len())
	}

	compute := s.Compute
	if compute == nil {
		compute = calculator.Compute
	}
	frame, err := compute(series)
	if err != nil {
		return nil, err
	}
	return BuildResult(frame, cfg), nil
}

// BuildResult assembles the scan row for the latest bar of frame.
func BuildResult(frame *model.IndicatorFrame, cfg strategy.ScoreConfig) *model.ScanResult {
	latest, ok := frame.Latest()
	if !ok {
		return &model.ScanResult{Symbol: frame.Symbol}
	}
	eval := strategy.Evaluate(frame, cfg)

	r := &model.ScanResult{
		Symbol:     frame.Symbol,
		Date:       latest.Date,
		Price:      latest.Close,
		Volume:     latest.Volume,
		RSI:        latest.RSI,
		SMA50:      latest.SMA50,
		SMA200:     latest.SMA200,
		MACD:       latest.MACD,
		MACDSignal: latest.MACDSignal,
		ATR:        latest.ATR,
		Score:      eval.Score.Points,
		Rating:     eval.Score.Rating,
		Reasons:    eval.Score.Reasons,
		Signals:    eval.Signals,
		StopLoss:   eval.Risk.StopLoss,
		Target:     eval.Risk.Target,
	}
	if latest.Open != 0 {
		r.ChangePct = (latest.Close - latest.Open) / latest.Open * 100
	}
	if latest.VolumeSMA.Valid && latest.VolumeSMA.Float64 > 0 {
		r.VolumeRatio = null.FloatFrom(float64(latest.Volume) / latest.VolumeSMA.Float64)
	}
	if latest.SMA200.Valid && latest.SMA200.Float64 != 0 {
		r.DistanceFromSMA200Pct = null.FloatFrom((latest.Close - latest.SMA200.Float64) / latest.SMA200.Float64 * 100)
	}
	if support, resistance, err := calculator.SupportResistance(frame.Bars, calculator.SupportResistanceWindow); err == nil {
		r.Support = null.FloatFrom(support)
		r.Resistance = null.FloatFrom(resistance)
	}
	return r
}

// Dedupe upper-cases and trims symbols, dropping blanks and repeats while
// keeping first-occurrence order.
func Dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
