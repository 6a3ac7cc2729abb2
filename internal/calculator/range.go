package calculator

import (
	"errors"
	"fmt"
	"math"

	"MarketScanner/internal/model"
)

// Trading-day windows for the range helpers.
const (
	SupportResistanceWindow = 20
	Window52Week            = 252
)

// HighLow scans the most recent `window` bars (or all of them when fewer) and
// returns the highest high and lowest low.
func HighLow(bars []model.PriceBar, window int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < len(bars); i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// SupportResistance returns the lowest low (support) and highest high
// (resistance) of the trailing window. It needs at least window bars.
func SupportResistance(bars []model.PriceBar, window int) (support, resistance float64, err error) {
	if len(bars) < window {
		return 0, 0, fmt.Errorf("need %d bars for support/resistance, got %d", window, len(bars))
	}
	resistance, support, err = HighLow(bars, window)
	return support, resistance, err
}

// RangePosition returns where current sits within [low, high], clamped to 0..1.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(1, math.Max(0, pos)), nil
}
