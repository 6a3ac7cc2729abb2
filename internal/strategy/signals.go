package strategy

import (
	"fmt"

	"github.com/guregu/null/v6"

	"MarketScanner/internal/model"
)

// Fixed signal thresholds.
const (
	RSIOversoldLevel    = 30.0
	RSIOverboughtLevel  = 70.0
	VolumeSpikeMultiple = 2.0
)

// NoSignal is returned when no rule fires.
var NoSignal = model.SignalEvent{
	Kind:        model.SignalNone,
	Bias:        model.BiasNone,
	Description: "No clear signals right now",
}

// DetectSignals evaluates the crossover, oscillator, band and volume rules on
// the last two rows of frame. Rules whose inputs are undefined do not fire.
// The result is never empty: NoSignal stands in when nothing fired.
func DetectSignals(frame *model.IndicatorFrame) []model.SignalEvent {
	latest, ok := frame.Latest()
	if !ok {
		return []model.SignalEvent{NoSignal}
	}
	prev, ok := frame.Previous()
	if !ok {
		return []model.SignalEvent{NoSignal}
	}

	var signals []model.SignalEvent

	// Golden / Death cross
	if lte(prev.SMA50, prev.SMA200) && gt(latest.SMA50, latest.SMA200) {
		signals = append(signals, model.SignalEvent{
			Kind:        model.SignalGoldenCross,
			Bias:        model.BiasBullish,
			Description: "Strong buy signal: SMA50 crossed above SMA200",
		})
	}
	if gte(prev.SMA50, prev.SMA200) && lt(latest.SMA50, latest.SMA200) {
		signals = append(signals, model.SignalEvent{
			Kind:        model.SignalDeathCross,
			Bias:        model.BiasBearish,
			Description: "Strong sell signal: SMA50 crossed below SMA200",
		})
	}

	// RSI extremes
	if latest.RSI.Valid {
		switch rsi := latest.RSI.Float64; {
		case rsi < RSIOversoldLevel:
			signals = append(signals, model.SignalEvent{
				Kind:        model.SignalRSIOversold,
				Bias:        model.BiasBullish,
				Description: fmt.Sprintf("RSI low (%.1f): potential buy zone", rsi),
			})
		case rsi > RSIOverboughtLevel:
			signals = append(signals, model.SignalEvent{
				Kind:        model.SignalRSIOverbought,
				Bias:        model.BiasBearish,
				Description: fmt.Sprintf("RSI high (%.1f): potential sell zone", rsi),
			})
		}
	}

	// MACD crossovers
	if lte(prev.MACD, prev.MACDSignal) && gt(latest.MACD, latest.MACDSignal) {
		signals = append(signals, model.SignalEvent{
			Kind:        model.SignalMACDCrossUp,
			Bias:        model.BiasBullish,
			Description: "MACD crossed above its signal line: positive momentum",
		})
	} else if gte(prev.MACD, prev.MACDSignal) && lt(latest.MACD, latest.MACDSignal) {
		signals = append(signals, model.SignalEvent{
			Kind:        model.SignalMACDCrossDown,
			Bias:        model.BiasBearish,
			Description: "MACD crossed below its signal line: negative momentum",
		})
	}

	// Bollinger breakouts
	closePx := null.FloatFrom(latest.Close)
	if lt(closePx, latest.BBLow) {
		signals = append(signals, model.SignalEvent{
			Kind:        model.SignalBBBreakoutLow,
			Bias:        model.BiasWatch,
			Description: "Price closed below the lower Bollinger band",
		})
	} else if gt(closePx, latest.BBHigh) {
		signals = append(signals, model.SignalEvent{
			Kind:        model.SignalBBBreakoutHigh,
			Bias:        model.BiasWatch,
			Description: "Price closed above the upper Bollinger band",
		})
	}

	// Volume spike
	if latest.VolumeSMA.Valid && float64(latest.Volume) > VolumeSpikeMultiple*latest.VolumeSMA.Float64 {
		signals = append(signals, model.SignalEvent{
			Kind:        model.SignalVolumeSpike,
			Bias:        model.BiasInfo,
			Description: fmt.Sprintf("Unusual volume: more than %.0fx the 20-day average", VolumeSpikeMultiple),
		})
	}

	if len(signals) == 0 {
		return []model.SignalEvent{NoSignal}
	}
	return signals
}

// Comparisons that are false whenever either side is undefined.

func gt(a, b null.Float) bool  { return a.Valid && b.Valid && a.Float64 > b.Float64 }
func gte(a, b null.Float) bool { return a.Valid && b.Valid && a.Float64 >= b.Float64 }
func lt(a, b null.Float) bool  { return a.Valid && b.Valid && a.Float64 < b.Float64 }
func lte(a, b null.Float) bool { return a.Valid && b.Valid && a.Float64 <= b.Float64 }
