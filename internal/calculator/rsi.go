package calculator

import (
	"github.com/guregu/null/v6"

	"MarketScanner/internal/logging"
)

var rsiLog = logging.New("rsi")

// RSI computes Wilder's relative strength index over period. Entries 0..period-1
// are undefined. When the average loss is zero the value is 100.
func RSI(closes []float64, period int) []null.Float {
	out := make([]null.Float, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	// Initial average gain/loss over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = null.FloatFrom(rsiValue(avgGain, avgLoss))

	// Wilder smoothing for remaining bars
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = null.FloatFrom(rsiValue(avgGain, avgLoss))
	}

	if rsiLog.Enabled() {
		rsiLog.Debug("rsi computed", "period", period, "bars", len(closes), "avgGain", avgGain, "avgLoss", avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
