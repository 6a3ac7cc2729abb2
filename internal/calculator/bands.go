package calculator

import "github.com/guregu/null/v6"

// Bands holds Bollinger band columns.
type Bands struct {
	High []null.Float
	Mid  []null.Float
	Low  []null.Float
}

// BollingerBands computes SMA(period) +/- k standard deviations of closes.
func BollingerBands(closes []float64, period int, k float64) Bands {
	mid := SMA(closes, period)
	sd := StdDev(closes, period)

	b := Bands{
		High: make([]null.Float, len(closes)),
		Mid:  mid,
		Low:  make([]null.Float, len(closes)),
	}
	for i := range closes {
		if !mid[i].Valid || !sd[i].Valid {
			continue
		}
		b.High[i] = null.FloatFrom(mid[i].Float64 + k*sd[i].Float64)
		b.Low[i] = null.FloatFrom(mid[i].Float64 - k*sd[i].Float64)
	}
	return b
}
