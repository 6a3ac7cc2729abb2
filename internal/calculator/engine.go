package calculator

import (
	"errors"
	"fmt"

	"MarketScanner/internal/model"
)

// ErrInsufficientData is returned when a series is too short for any indicator.
var ErrInsufficientData = errors.New("insufficient data")

// MinBars is the shortest series Compute accepts.
const MinBars = 2

// Indicator windows.
const (
	RSIPeriod       = 14
	ATRPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerK      = 2.0
	VolumePeriod    = 20
)

// Compute enriches series with every indicator column. The returned frame
// owns a copy of the bars; the input is not modified.
func Compute(series *model.PriceSeries) (*model.IndicatorFrame, error) {
	if series.Len() < MinBars {
		return nil, fmt.Errorf("compute %s: %w: need %d bars, got %d",
			symbolOf(series), ErrInsufficientData, MinBars, series.Len())
	}

	bars := make([]model.PriceBar, len(series.Bars))
	copy(bars, series.Bars)
	closes := series.Closes()

	macd := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	bb := BollingerBands(closes, BollingerPeriod, BollingerK)

	return &model.IndicatorFrame{
		Symbol: series.Symbol,
		Bars:   bars,

		SMA20:  SMA(closes, 20),
		SMA50:  SMA(closes, 50),
		SMA150: SMA(closes, 150),
		SMA200: SMA(closes, 200),

		EMA12: EMA(closes, 12),
		EMA26: EMA(closes, 26),
		EMA50: EMA(closes, 50),

		RSI: RSI(closes, RSIPeriod),

		MACD:       macd.Line,
		MACDSignal: macd.Signal,
		MACDDiff:   macd.Diff,

		BBHigh: bb.High,
		BBMid:  bb.Mid,
		BBLow:  bb.Low,

		ATR:       ATR(bars, ATRPeriod),
		VolumeSMA: SMA(series.Volumes(), VolumePeriod),
	}, nil
}

func symbolOf(series *model.PriceSeries) string {
	if series == nil || series.Symbol == "" {
		return "series"
	}
	return series.Symbol
}
