package calculator

import "github.com/guregu/null/v6"

// MACDColumns holds the three MACD output columns.
type MACDColumns struct {
	Line   []null.Float
	Signal []null.Float
	Diff   []null.Float
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and the difference.
// The signal line is seeded by the SMA of the first `signal` defined MACD values.
func MACD(closes []float64, fast, slow, signal int) MACDColumns {
	n := len(closes)
	cols := MACDColumns{
		Line:   make([]null.Float, n),
		Signal: make([]null.Float, n),
		Diff:   make([]null.Float, n),
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	raw := make([]float64, n)
	first := -1
	for i := 0; i < n; i++ {
		if !fastEMA[i].Valid || !slowEMA[i].Valid {
			continue
		}
		raw[i] = fastEMA[i].Float64 - slowEMA[i].Float64
		cols.Line[i] = null.FloatFrom(raw[i])
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return cols
	}

	cols.Signal = emaFrom(raw, first, signal)
	for i := 0; i < n; i++ {
		if cols.Line[i].Valid && cols.Signal[i].Valid {
			cols.Diff[i] = null.FloatFrom(cols.Line[i].Float64 - cols.Signal[i].Float64)
		}
	}
	return cols
}
