package model

import "github.com/guregu/null/v6"

// IndicatorFrame is a price series enriched with aligned indicator columns.
// Every column has exactly one entry per bar; an invalid null.Float means the
// indicator has no value yet at that bar.
type IndicatorFrame struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`

	SMA20  []null.Float `json:"sma20"`
	SMA50  []null.Float `json:"sma50"`
	SMA150 []null.Float `json:"sma150"`
	SMA200 []null.Float `json:"sma200"`

	EMA12 []null.Float `json:"ema12"`
	EMA26 []null.Float `json:"ema26"`
	EMA50 []null.Float `json:"ema50"`

	RSI []null.Float `json:"rsi"`

	MACD       []null.Float `json:"macd"`
	MACDSignal []null.Float `json:"macd_signal"`
	MACDDiff   []null.Float `json:"macd_diff"`

	BBHigh []null.Float `json:"bb_high"`
	BBMid  []null.Float `json:"bb_mid"`
	BBLow  []null.Float `json:"bb_low"`

	ATR       []null.Float `json:"atr"`
	VolumeSMA []null.Float `json:"volume_sma"`
}

// Snapshot is one row of an IndicatorFrame.
type Snapshot struct {
	PriceBar

	SMA20  null.Float `json:"sma20"`
	SMA50  null.Float `json:"sma50"`
	SMA150 null.Float `json:"sma150"`
	SMA200 null.Float `json:"sma200"`

	EMA12 null.Float `json:"ema12"`
	EMA26 null.Float `json:"ema26"`
	EMA50 null.Float `json:"ema50"`

	RSI null.Float `json:"rsi"`

	MACD       null.Float `json:"macd"`
	MACDSignal null.Float `json:"macd_signal"`
	MACDDiff   null.Float `json:"macd_diff"`

	BBHigh null.Float `json:"bb_high"`
	BBMid  null.Float `json:"bb_mid"`
	BBLow  null.Float `json:"bb_low"`

	ATR       null.Float `json:"atr"`
	VolumeSMA null.Float `json:"volume_sma"`
}

// Len returns the number of bars in the frame.
func (f *IndicatorFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Bars)
}

// At returns the row at index i. It panics if i is out of range.
func (f *IndicatorFrame) At(i int) Snapshot {
	return Snapshot{
		PriceBar:   f.Bars[i],
		SMA20:      f.SMA20[i],
		SMA50:      f.SMA50[i],
		SMA150:     f.SMA150[i],
		SMA200:     f.SMA200[i],
		EMA12:      f.EMA12[i],
		EMA26:      f.EMA26[i],
		EMA50:      f.EMA50[i],
		RSI:        f.RSI[i],
		MACD:       f.MACD[i],
		MACDSignal: f.MACDSignal[i],
		MACDDiff:   f.MACDDiff[i],
		BBHigh:     f.BBHigh[i],
		BBMid:      f.BBMid[i],
		BBLow:      f.BBLow[i],
		ATR:        f.ATR[i],
		VolumeSMA:  f.VolumeSMA[i],
	}
}

// Latest returns the most recent row. ok is false for an empty frame.
func (f *IndicatorFrame) Latest() (Snapshot, bool) {
	if f.Len() == 0 {
		return Snapshot{}, false
	}
	return f.At(f.Len() - 1), true
}

// Previous returns the row before the latest. ok is false with fewer than two bars.
func (f *IndicatorFrame) Previous() (Snapshot, bool) {
	if f.Len() < 2 {
		return Snapshot{}, false
	}
	return f.At(f.Len() - 2), true
}
