package collector

import (
	"context"
	"fmt"
	"log"

	"github.com/guregu/null/v6"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/model"
	"MarketScanner/internal/strategy"
)

// DefaultLookback covers SMA-200 with room for the 52-week range.
const DefaultLookback = 260

// ComputeFunc turns a series into an indicator frame. calculator.Compute and
// the frame cache both satisfy it.
type ComputeFunc func(*model.PriceSeries) (*model.IndicatorFrame, error)

// Analysis is the single-symbol pipeline output.
type Analysis struct {
	Symbol    string                `json:"symbol"`
	Frame     *model.IndicatorFrame `json:"-"`
	Latest    model.Snapshot        `json:"latest"`
	// ChangePct is the latest close vs the previous close, in percent. Scan
	// results and quotes measure close vs open of the latest bar instead.
	ChangePct null.Float            `json:"change_pct"`
	Signals   []model.SignalEvent   `json:"signals"`
	Score     strategy.Score        `json:"score"`
	Risk      strategy.Risk         `json:"risk"`

	Support     null.Float `json:"support"`
	Resistance  null.Float `json:"resistance"`
	High52w     null.Float `json:"high_52w"`
	Low52w      null.Float `json:"low_52w"`
	Position52w null.Float `json:"position_52w"`
}

// Collector orchestrates data fetching, indicator computation and evaluation
// for one symbol at a time.
type Collector struct {
	Fetcher  Fetcher
	Compute  ComputeFunc
	Lookback int
}

// NewCollector creates a new Collector using calculator.Compute.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, Compute: calculator.Compute, Lookback: DefaultLookback}
}

// Frame fetches symbol and computes its indicator frame.
func (c *Collector) Frame(ctx context.Context, symbol string, lookback int) (*model.IndicatorFrame, error) {
	if lookback <= 0 {
		lookback = c.Lookback
	}
	series, err := c.Fetcher.Fetch(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	compute := c.Compute
	if compute == nil {
		compute = calculator.Compute
	}
	frame, err := compute(series)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	return frame, nil
}

// Analyze runs fetch -> frame -> signals -> score -> risk -> ranges.
// Range helpers degrade to undefined values with a warning.
func (c *Collector) Analyze(ctx context.Context, symbol string, cfg strategy.ScoreConfig) (*Analysis, error) {
	frame, err := c.Frame(ctx, symbol, c.Lookback)
	if err != nil {
		return nil, err
	}

	eval := strategy.Evaluate(frame, cfg)
	latest, _ := frame.Latest()
	a := &Analysis{
		Symbol:  frame.Symbol,
		Frame:   frame,
		Latest:  latest,
		Signals: eval.Signals,
		Score:   eval.Score,
		Risk:    eval.Risk,
	}

	if prev, ok := frame.Previous(); ok && prev.Close != 0 {
		a.ChangePct = null.FloatFrom((latest.Close - prev.Close) / prev.Close * 100)
	}

	// Support / resistance
	if s, r, err := calculator.SupportResistance(frame.Bars, calculator.SupportResistanceWindow); err != nil {
		log.Printf("[WARN] %s support/resistance unavailable: %v", symbol, err)
	} else {
		a.Support = null.FloatFrom(s)
		a.Resistance = null.FloatFrom(r)
	}

	// 52-week range
	if h, l, err := calculator.HighLow(frame.Bars, calculator.Window52Week); err != nil {
		log.Printf("[WARN] %s 52-week range calculation failed: %v", symbol, err)
	} else {
		a.High52w = null.FloatFrom(h)
		a.Low52w = null.FloatFrom(l)
		if pos, err := calculator.RangePosition(latest.Close, h, l); err != nil {
			log.Printf("[WARN] %s 52-week position calculation failed: %v", symbol, err)
		} else {
			a.Position52w = null.FloatFrom(pos)
		}
	}

	return a, nil
}
