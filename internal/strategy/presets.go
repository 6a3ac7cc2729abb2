package strategy

import (
	"fmt"
	"sort"

	"MarketScanner/internal/model"
)

// Preset names.
const (
	PresetClassic  = "classic"
	PresetWeighted = "weighted"
	PresetMomentum = "momentum"
)

// Classic awards one point per condition on a 0..5 scale.
func Classic() ScoreConfig {
	return ScoreConfig{
		AboveSMA50Points:  1,
		AboveSMA200Points: 1,
		RSIBandLow:        40,
		RSIBandHigh:       60,
		RSIBandPoints:     1,
		RSIOversold:       35,
		RSIOversoldPoints: 1,
		MACDPoints:        1,
		VolumeMultiplier:  1.5,
		VolumePoints:      1,
		MaxReasons:        DefaultMaxReasons,
		Tiers: []RatingTier{
			{MinScore: 4, Rating: model.RatingStrongBuy},
			{MinScore: 3, Rating: model.RatingBuy},
			{MinScore: 2, Rating: model.RatingWatch},
		},
		FloorRating: model.RatingNeutral,
		StopLossATR: 2,
		TargetATR:   3,
	}
}

// Weighted uses the 30/20/20/15/15 split on a 0..100 scale.
func Weighted() ScoreConfig {
	return ScoreConfig{
		AboveSMA50Points:  30,
		AboveSMA200Points: 20,
		RSIBandLow:        40,
		RSIBandHigh:       60,
		RSIBandPoints:     20,
		RSIOversold:       35,
		RSIOversoldPoints: 20,
		MACDPoints:        15,
		VolumeMultiplier:  1.5,
		VolumePoints:      15,
		MaxReasons:        DefaultMaxReasons,
		Tiers: []RatingTier{
			{MinScore: 80, Rating: model.RatingStrongBuy},
			{MinScore: 60, Rating: model.RatingBuy},
			{MinScore: 40, Rating: model.RatingWatch},
		},
		FloorRating: model.RatingNeutral,
		StopLossATR: 1.5,
		TargetATR:   3,
	}
}

// Momentum uses the 40/20/20/20 split: trend, volume, RSI band and a higher close.
func Momentum() ScoreConfig {
	return ScoreConfig{
		AboveSMA50Points: 40,
		RSIBandLow:       40,
		RSIBandHigh:      60,
		RSIBandPoints:    20,
		VolumeMultiplier: 1.0,
		VolumePoints:     20,
		MomentumPoints:   20,
		MaxReasons:       DefaultMaxReasons,
		Tiers: []RatingTier{
			{MinScore: 80, Rating: model.RatingStrongBuy},
			{MinScore: 60, Rating: model.RatingBuy},
			{MinScore: 40, Rating: model.RatingWatch},
		},
		FloorRating: model.RatingNeutral,
		StopLossATR: 2,
		TargetATR:   4,
	}
}

var presets = map[string]func() ScoreConfig{
	PresetClassic:  Classic,
	PresetWeighted: Weighted,
	PresetMomentum: Momentum,
}

// Preset returns a fresh copy of the named preset.
func Preset(name string) (ScoreConfig, error) {
	fn, ok := presets[name]
	if !ok {
		return ScoreConfig{}, fmt.Errorf("unknown scoring preset %q", name)
	}
	return fn(), nil
}

// PresetNames lists the available presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
