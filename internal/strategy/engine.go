package strategy

import "MarketScanner/internal/model"

// Evaluation bundles everything the evaluator derives from one frame.
type Evaluation struct {
	Signals []model.SignalEvent `json:"signals"`
	Score   Score               `json:"score"`
	Risk    Risk                `json:"risk"`
}

// Evaluate runs signal detection, scoring and risk sizing on frame.
func Evaluate(frame *model.IndicatorFrame, cfg ScoreConfig) *Evaluation {
	return &Evaluation{
		Signals: DetectSignals(frame),
		Score:   ComputeScore(frame, cfg),
		Risk:    RiskLevels(frame, cfg),
	}
}
