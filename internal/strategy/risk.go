package strategy

import (
	"github.com/guregu/null/v6"

	"MarketScanner/internal/model"
)

// Risk holds ATR-derived stop-loss and target levels.
type Risk struct {
	StopLoss null.Float `json:"stop_loss"`
	Target   null.Float `json:"target"`
}

// RiskLevels places the stop StopLossATR x ATR below the latest close and the
// target TargetATR x ATR above it. Both are undefined without an ATR.
func RiskLevels(frame *model.IndicatorFrame, cfg ScoreConfig) Risk {
	latest, ok := frame.Latest()
	if !ok || !latest.ATR.Valid {
		return Risk{}
	}
	atr := latest.ATR.Float64
	return Risk{
		StopLoss: null.FloatFrom(latest.Close - cfg.StopLossATR*atr),
		Target:   null.FloatFrom(latest.Close + cfg.TargetATR*atr),
	}
}
