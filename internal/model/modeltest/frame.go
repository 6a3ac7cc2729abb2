package modeltest

import (
	"github.com/guregu/null/v6"

	"MarketScanner/internal/model"
)

// Frame assembles an IndicatorFrame from explicit rows, oldest first. Rows
// without a date get consecutive dates from Epoch.
func Frame(symbol string, rows ...model.Snapshot) *model.IndicatorFrame {
	n := len(rows)
	f := &model.IndicatorFrame{
		Symbol:     symbol,
		Bars:       make([]model.PriceBar, n),
		SMA20:      make([]null.Float, n),
		SMA50:      make([]null.Float, n),
		SMA150:     make([]null.Float, n),
		SMA200:     make([]null.Float, n),
		EMA12:      make([]null.Float, n),
		EMA26:      make([]null.Float, n),
		EMA50:      make([]null.Float, n),
		RSI:        make([]null.Float, n),
		MACD:       make([]null.Float, n),
		MACDSignal: make([]null.Float, n),
		MACDDiff:   make([]null.Float, n),
		BBHigh:     make([]null.Float, n),
		BBMid:      make([]null.Float, n),
		BBLow:      make([]null.Float, n),
		ATR:        make([]null.Float, n),
		VolumeSMA:  make([]null.Float, n),
	}
	for i, r := range rows {
		if r.Date.IsZero() {
			r.Date = Epoch.AddDate(0, 0, i)
		}
		f.Bars[i] = r.PriceBar
		f.SMA20[i] = r.SMA20
		f.SMA50[i] = r.SMA50
		f.SMA150[i] = r.SMA150
		f.SMA200[i] = r.SMA200
		f.EMA12[i] = r.EMA12
		f.EMA26[i] = r.EMA26
		f.EMA50[i] = r.EMA50
		f.RSI[i] = r.RSI
		f.MACD[i] = r.MACD
		f.MACDSignal[i] = r.MACDSignal
		f.MACDDiff[i] = r.MACDDiff
		f.BBHigh[i] = r.BBHigh
		f.BBMid[i] = r.BBMid
		f.BBLow[i] = r.BBLow
		f.ATR[i] = r.ATR
		f.VolumeSMA[i] = r.VolumeSMA
	}
	return f
}

// V is shorthand for a defined indicator value.
func V(f float64) null.Float { return null.FloatFrom(f) }
