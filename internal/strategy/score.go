package strategy

import (
	"errors"
	"fmt"

	"MarketScanner/internal/model"
)

// RatingTier maps a minimum score to a rating.
type RatingTier struct {
	MinScore int          `yaml:"min_score" json:"min_score"`
	Rating   model.Rating `yaml:"rating" json:"rating"`
}

// ScoreConfig holds every tunable of the opportunity score and risk levels.
// Points are awarded per independently true condition; a zero value disables
// that condition.
type ScoreConfig struct {
	// Close above the 50-day SMA.
	AboveSMA50Points int `yaml:"above_sma50_points" json:"above_sma50_points"`
	// Close above the 200-day SMA.
	AboveSMA200Points int `yaml:"above_sma200_points" json:"above_sma200_points"`

	// RSI strictly between RSIBandLow and RSIBandHigh ("healthy momentum").
	RSIBandLow    float64 `yaml:"rsi_band_low" json:"rsi_band_low"`
	RSIBandHigh   float64 `yaml:"rsi_band_high" json:"rsi_band_high"`
	RSIBandPoints int     `yaml:"rsi_band_points" json:"rsi_band_points"`

	// RSI below RSIOversold, checked only when the band did not match.
	RSIOversold       float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOversoldPoints int     `yaml:"rsi_oversold_points" json:"rsi_oversold_points"`

	// MACD above its signal line.
	MACDPoints int `yaml:"macd_points" json:"macd_points"`

	// Volume above VolumeMultiplier times its 20-day average.
	VolumeMultiplier float64 `yaml:"volume_multiplier" json:"volume_multiplier"`
	VolumePoints     int     `yaml:"volume_points" json:"volume_points"`

	// Close above the previous close.
	MomentumPoints int `yaml:"momentum_points" json:"momentum_points"`

	// Number of reason tags kept for display. Zero means DefaultMaxReasons.
	MaxReasons int `yaml:"max_reasons" json:"max_reasons"`

	// Rating tiers, highest MinScore first. Scores below every tier get FloorRating.
	Tiers       []RatingTier `yaml:"tiers" json:"tiers"`
	FloorRating model.Rating `yaml:"floor_rating" json:"floor_rating"`

	// ATR multiples for stop-loss (below close) and target (above close).
	StopLossATR float64 `yaml:"stop_loss_atr" json:"stop_loss_atr"`
	TargetATR   float64 `yaml:"target_atr" json:"target_atr"`
}

// Validate rejects configurations that would make scoring non-monotonic or
// the tier walk ambiguous.
func (c *ScoreConfig) Validate() error {
	points := map[string]int{
		"above_sma50_points":  c.AboveSMA50Points,
		"above_sma200_points": c.AboveSMA200Points,
		"rsi_band_points":     c.RSIBandPoints,
		"rsi_oversold_points": c.RSIOversoldPoints,
		"macd_points":         c.MACDPoints,
		"volume_points":       c.VolumePoints,
		"momentum_points":     c.MomentumPoints,
	}
	for name, p := range points {
		if p < 0 {
			return fmt.Errorf("scoring.%s must not be negative, got %d", name, p)
		}
	}
	if c.RSIBandPoints > 0 && c.RSIBandLow >= c.RSIBandHigh {
		return fmt.Errorf("scoring.rsi_band_low (%.1f) must be below rsi_band_high (%.1f)", c.RSIBandLow, c.RSIBandHigh)
	}
	if c.VolumePoints > 0 && c.VolumeMultiplier <= 0 {
		return errors.New("scoring.volume_multiplier must be positive")
	}
	if c.MaxReasons < 0 {
		return errors.New("scoring.max_reasons must not be negative")
	}
	if c.StopLossATR < 0 || c.TargetATR < 0 {
		return errors.New("scoring ATR multipliers must not be negative")
	}
	if c.FloorRating == "" {
		return errors.New("scoring.floor_rating is required")
	}
	for i, t := range c.Tiers {
		if t.Rating == "" {
			return fmt.Errorf("scoring.tiers[%d].rating is required", i)
		}
		if i > 0 && t.MinScore >= c.Tiers[i-1].MinScore {
			return fmt.Errorf("scoring.tiers must be ordered by descending min_score (tier %d)", i)
		}
	}
	return nil
}

// DefaultMaxReasons is the reason cap used when MaxReasons is unset.
const DefaultMaxReasons = 3

func (c *ScoreConfig) reasonLimit() int {
	if c.MaxReasons <= 0 {
		return DefaultMaxReasons
	}
	return c.MaxReasons
}

// MaxScore is the score of a bar that satisfies every condition.
func (c *ScoreConfig) MaxScore() int {
	rsi := c.RSIBandPoints
	if c.RSIOversoldPoints > rsi {
		rsi = c.RSIOversoldPoints
	}
	return c.AboveSMA50Points + c.AboveSMA200Points + rsi + c.MACDPoints + c.VolumePoints + c.MomentumPoints
}

// Score is the outcome of ComputeScore.
type Score struct {
	Points  int          `json:"score"`
	Rating  model.Rating `json:"rating"`
	Reasons []string     `json:"reasons"`
}

// Reason tags.
const (
	ReasonAboveSMA50  = "Above SMA50"
	ReasonAboveSMA200 = "Above SMA200"
	ReasonRSINeutral  = "RSI Neutral"
	ReasonRSIOversold = "RSI Oversold"
	ReasonMACDBullish = "MACD Bullish"
	ReasonHighVolume  = "High Volume"
	ReasonMomentum    = "Momentum"
)

// ComputeScore accumulates points for each true condition on the latest row
// of frame. Undefined inputs leave their condition unmet.
func ComputeScore(frame *model.IndicatorFrame, cfg ScoreConfig) Score {
	latest, ok := frame.Latest()
	if !ok {
		return Score{Rating: cfg.Rating(0), Reasons: []string{}}
	}

	points := 0
	reasons := []string{}
	award := func(p int, reason string) {
		if p <= 0 {
			return
		}
		points += p
		reasons = append(reasons, reason)
	}

	if latest.SMA50.Valid && latest.Close > latest.SMA50.Float64 {
		award(cfg.AboveSMA50Points, ReasonAboveSMA50)
	}
	if latest.SMA200.Valid && latest.Close > latest.SMA200.Float64 {
		award(cfg.AboveSMA200Points, ReasonAboveSMA200)
	}

	if latest.RSI.Valid {
		rsi := latest.RSI.Float64
		if rsi > cfg.RSIBandLow && rsi < cfg.RSIBandHigh {
			award(cfg.RSIBandPoints, ReasonRSINeutral)
		} else if rsi < cfg.RSIOversold {
			award(cfg.RSIOversoldPoints, ReasonRSIOversold)
		}
	}

	if gt(latest.MACD, latest.MACDSignal) {
		award(cfg.MACDPoints, ReasonMACDBullish)
	}

	if latest.VolumeSMA.Valid && float64(latest.Volume) > cfg.VolumeMultiplier*latest.VolumeSMA.Float64 {
		award(cfg.VolumePoints, ReasonHighVolume)
	}

	if prev, ok := frame.Previous(); ok && latest.Close > prev.Close {
		award(cfg.MomentumPoints, ReasonMomentum)
	}

	if limit := cfg.reasonLimit(); len(reasons) > limit {
		reasons = reasons[:limit]
	}

	return Score{
		Points:  points,
		Rating:  cfg.Rating(points),
		Reasons: reasons,
	}
}

// Rating maps a total score to a rating by walking the tiers top-down.
func (c *ScoreConfig) Rating(score int) model.Rating {
	for _, t := range c.Tiers {
		if score >= t.MinScore {
			return t.Rating
		}
	}
	return c.FloorRating
}
