package calculator

import (
	"math"

	"github.com/guregu/null/v6"
)

// SMA computes the simple moving average of values over period. The first
// period-1 entries are undefined. Each window is summed on its own so a
// constant window averages to exactly that constant.
func SMA(values []float64, period int) []null.Float {
	out := make([]null.Float, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out[i] = null.FloatFrom(mean(values[i-period+1 : i+1]))
	}
	return out
}

// mean averages window as offsets from its first value, which keeps the
// result exact when every value is the same.
func mean(window []float64) float64 {
	base := window[0]
	sum := 0.0
	for _, v := range window {
		sum += v - base
	}
	return base + sum/float64(len(window))
}

// EMA computes the exponential moving average with smoothing 2/(period+1),
// seeded by the SMA of the first period values.
func EMA(values []float64, period int) []null.Float {
	return emaFrom(values, 0, period)
}

// emaFrom runs an EMA over values[start:], leaving everything before the seed
// undefined. MACD uses it to smooth a column whose head is undefined.
func emaFrom(values []float64, start, period int) []null.Float {
	out := make([]null.Float, len(values))
	if period <= 0 || start < 0 || len(values)-start < period {
		return out
	}
	alpha := 2.0 / float64(period+1)

	seedEnd := start + period - 1
	prev := mean(values[start : seedEnd+1])
	out[seedEnd] = null.FloatFrom(prev)

	for i := seedEnd + 1; i < len(values); i++ {
		prev = (values[i]-prev)*alpha + prev
		out[i] = null.FloatFrom(prev)
	}
	return out
}

// StdDev computes the rolling population standard deviation over period.
func StdDev(values []float64, period int) []null.Float {
	out := make([]null.Float, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		m := mean(window)

		variance := 0.0
		for _, v := range window {
			d := v - m
			variance += d * d
		}
		out[i] = null.FloatFrom(math.Sqrt(variance / float64(period)))
	}
	return out
}
