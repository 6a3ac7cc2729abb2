package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"MarketScanner/internal/model"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and is undefined.
func TrueRange(bars []model.PriceBar) []null.Float {
	out := make([]null.Float, len(bars))
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		tr := math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-prevClose), math.Abs(bars[i].Low-prevClose)))
		out[i] = null.FloatFrom(tr)
	}
	return out
}

// ATR computes Wilder's average true range. The first value, at index period,
// is the mean of the first period true ranges.
func ATR(bars []model.PriceBar, period int) []null.Float {
	out := make([]null.Float, len(bars))
	if period <= 0 || len(bars) <= period {
		return out
	}
	tr := TrueRange(bars)

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i].Float64
	}
	atr := sum / float64(period)
	out[period] = null.FloatFrom(atr)

	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + tr[i].Float64) / float64(period)
		out[i] = null.FloatFrom(atr)
	}
	return out
}
