// Package modeltest builds deterministic price series for tests and the mock fetcher.
package modeltest

import (
	"math"
	"time"

	"MarketScanner/internal/model"
)

// Epoch is the date of the first generated bar.
var Epoch = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// DefaultVolume is the volume of every generated bar unless overridden.
const DefaultVolume int64 = 1_000_000

// FromCloses builds a series whose bars open at the previous close and span
// open/close with a small wick. volumes may be nil.
func FromCloses(symbol string, closes []float64, volumes []int64) *model.PriceSeries {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		vol := DefaultVolume
		if i < len(volumes) {
			vol = volumes[i]
		}
		bars[i] = model.PriceBar{
			Date:   Epoch.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, c) * 1.005,
			Low:    math.Min(open, c) * 0.995,
			Close:  c,
			Volume: vol,
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars}
}

// Rising returns n bars where every close is pct above the prior close.
func Rising(symbol string, n int, start, pct float64) *model.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start * math.Pow(1+pct, float64(i))
	}
	return FromCloses(symbol, closes, nil)
}

// Flat returns n identical bars at price.
func Flat(symbol string, n int, price float64) *model.PriceSeries {
	bars := make([]model.PriceBar, n)
	for i := range bars {
		bars[i] = model.PriceBar{
			Date:   Epoch.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: DefaultVolume,
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars}
}

// Wave returns n bars oscillating around a slow uptrend, with varying volume.
func Wave(symbol string, n int) *model.PriceSeries {
	closes := make([]float64, n)
	volumes := make([]int64, n)
	for i := range closes {
		x := float64(i)
		closes[i] = 100 + 0.05*x + 8*math.Sin(x/9) + 2.5*math.Sin(x/2.3)
		volumes[i] = DefaultVolume + int64(300_000*math.Sin(x/3))
	}
	return FromCloses(symbol, closes, volumes)
}
