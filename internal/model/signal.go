package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// SignalKind identifies which rule produced a signal.
type SignalKind string

const (
	SignalGoldenCross    SignalKind = "GOLDEN_CROSS"
	SignalDeathCross     SignalKind = "DEATH_CROSS"
	SignalRSIOversold    SignalKind = "RSI_OVERSOLD"
	SignalRSIOverbought  SignalKind = "RSI_OVERBOUGHT"
	SignalMACDCrossUp    SignalKind = "MACD_CROSS_UP"
	SignalMACDCrossDown  SignalKind = "MACD_CROSS_DOWN"
	SignalBBBreakoutLow  SignalKind = "BB_BREAKOUT_LOW"
	SignalBBBreakoutHigh SignalKind = "BB_BREAKOUT_HIGH"
	SignalVolumeSpike    SignalKind = "VOLUME_SPIKE"
	SignalNone           SignalKind = "NO_SIGNAL"
)

// Bias is the directional reading of a signal.
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasWatch   Bias = "WATCH"
	BiasInfo    Bias = "INFO"
	BiasNone    Bias = "NONE"
)

// SignalEvent is a rule that fired on the latest two bars of a frame.
type SignalEvent struct {
	Kind        SignalKind `json:"kind"`
	Bias        Bias       `json:"bias"`
	Description string     `json:"description"`
}

// Rating is the categorical label derived from a score.
type Rating string

const (
	RatingStrongBuy Rating = "Strong Buy"
	RatingBuy       Rating = "Buy"
	RatingWatch     Rating = "Watch"
	RatingNeutral   Rating = "Neutral"
)

// ScanResult is the per-symbol output of a batch scan.
type ScanResult struct {
	Symbol    string    `json:"symbol"`
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	// ChangePct is the latest bar's close vs its own open, in percent.
	// Analysis.ChangePct in the collector is close vs the previous close.
	ChangePct float64   `json:"change_pct"`
	Volume    int64     `json:"volume"`

	VolumeRatio           null.Float `json:"volume_ratio"`
	RSI                   null.Float `json:"rsi"`
	SMA50                 null.Float `json:"sma50"`
	SMA200                null.Float `json:"sma200"`
	MACD                  null.Float `json:"macd"`
	MACDSignal            null.Float `json:"macd_signal"`
	ATR                   null.Float `json:"atr"`
	DistanceFromSMA200Pct null.Float `json:"distance_from_sma200_pct"`

	Score   int      `json:"score"`
	Rating  Rating   `json:"rating"`
	Reasons []string `json:"reasons"`

	Signals    []SignalEvent `json:"signals"`
	StopLoss   null.Float    `json:"stop_loss"`
	Target     null.Float    `json:"target"`
	Support    null.Float    `json:"support"`
	Resistance null.Float    `json:"resistance"`
}
