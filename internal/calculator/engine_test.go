package calculator

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
	"MarketScanner/internal/model/modeltest"
)

func TestCompute_InsufficientData(t *testing.T) {
	for _, n := range []int{0, 1} {
		_, err := Compute(modeltest.Flat("TINY", n, 10))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientData)
	}

	_, err := Compute(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompute_TwoBarsDegradesGracefully(t *testing.T) {
	frame, err := Compute(modeltest.Rising("TWO", 2, 10, 0.01))
	require.NoError(t, err)
	require.Equal(t, 2, frame.Len())

	for i := 0; i < 2; i++ {
		assert.False(t, frame.SMA20[i].Valid)
		assert.False(t, frame.RSI[i].Valid)
		assert.False(t, frame.ATR[i].Valid)
		assert.False(t, frame.MACD[i].Valid)
	}
}

func TestCompute_ColumnsDefinedFromWindow(t *testing.T) {
	frame, err := Compute(modeltest.Wave("WAVE", 250))
	require.NoError(t, err)

	columns := []struct {
		name  string
		col   []null.Float
		first int
	}{
		{"SMA20", frame.SMA20, 19},
		{"SMA50", frame.SMA50, 49},
		{"SMA150", frame.SMA150, 149},
		{"SMA200", frame.SMA200, 199},
		{"EMA12", frame.EMA12, 11},
		{"EMA26", frame.EMA26, 25},
		{"EMA50", frame.EMA50, 49},
		{"RSI", frame.RSI, 14},
		{"MACD", frame.MACD, 25},
		{"MACDSignal", frame.MACDSignal, 33},
		{"MACDDiff", frame.MACDDiff, 33},
		{"BBHigh", frame.BBHigh, 19},
		{"BBMid", frame.BBMid, 19},
		{"BBLow", frame.BBLow, 19},
		{"ATR", frame.ATR, 14},
		{"VolumeSMA", frame.VolumeSMA, 19},
	}
	for _, c := range columns {
		t.Run(c.name, func(t *testing.T) {
			require.Len(t, c.col, 250)
			for i, v := range c.col {
				if i < c.first {
					assert.False(t, v.Valid, "index %d should be undefined", i)
				} else {
					assert.True(t, v.Valid, "index %d should be defined", i)
				}
			}
		})
	}
}

func TestCompute_RSIBounded(t *testing.T) {
	frame, err := Compute(modeltest.Wave("WAVE", 300))
	require.NoError(t, err)

	for i, v := range frame.RSI {
		if !v.Valid {
			continue
		}
		assert.GreaterOrEqual(t, v.Float64, 0.0, "index %d", i)
		assert.LessOrEqual(t, v.Float64, 100.0, "index %d", i)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	series := modeltest.Wave("WAVE", 260)

	a, err := Compute(series)
	require.NoError(t, err)
	b, err := Compute(series)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCompute_NoLookAhead(t *testing.T) {
	series := modeltest.Wave("WAVE", 240)
	full, err := Compute(series)
	require.NoError(t, err)

	prefix := &model.PriceSeries{Symbol: series.Symbol, Bars: series.Bars[:210]}
	partial, err := Compute(prefix)
	require.NoError(t, err)

	for i := 0; i < partial.Len(); i++ {
		assert.Equal(t, full.At(i), partial.At(i), "row %d changed when later bars were added", i)
	}
}

func TestCompute_DoesNotAliasInput(t *testing.T) {
	series := modeltest.Rising("COPY", 30, 50, 0.01)
	before := series.Bars[0].Close

	frame, err := Compute(series)
	require.NoError(t, err)
	frame.Bars[0].Close = -1

	assert.Equal(t, before, series.Bars[0].Close)
}

func TestCompute_FlatSeries(t *testing.T) {
	frame, err := Compute(modeltest.Flat("FLAT", 250, 100))
	require.NoError(t, err)

	latest, ok := frame.Latest()
	require.True(t, ok)

	for name, v := range map[string]null.Float{
		"SMA20": latest.SMA20, "SMA50": latest.SMA50, "SMA150": latest.SMA150, "SMA200": latest.SMA200,
		"EMA12": latest.EMA12, "EMA26": latest.EMA26, "EMA50": latest.EMA50, "BBMid": latest.BBMid,
	} {
		require.True(t, v.Valid, name)
		assert.InDelta(t, 100.0, v.Float64, 1e-9, name)
	}

	assert.Equal(t, 100.0, latest.RSI.Float64)
	assert.InDelta(t, 0, latest.BBHigh.Float64-latest.BBLow.Float64, 1e-9)
	assert.InDelta(t, 0, latest.MACD.Float64, 1e-9)
	assert.InDelta(t, 0, latest.ATR.Float64, 1e-9)
}

func TestCompute_FlatSeriesAveragesEqualClose(t *testing.T) {
	prices := []float64{0.37, 10.1, 123.45, 999.99}
	for i := 1; i <= 300; i++ {
		prices = append(prices, float64(i)*0.37)
	}

	for _, px := range prices {
		frame, err := Compute(modeltest.Flat("FLAT", 250, px))
		require.NoError(t, err)

		for i := 199; i < frame.Len(); i++ {
			row := frame.At(i)
			for name, v := range map[string]null.Float{
				"SMA20": row.SMA20, "SMA50": row.SMA50, "SMA150": row.SMA150, "SMA200": row.SMA200,
				"EMA12": row.EMA12, "EMA26": row.EMA26, "EMA50": row.EMA50, "BBMid": row.BBMid,
			} {
				require.True(t, v.Valid, "%s px=%v", name, px)
				require.Equal(t, px, v.Float64, "%s px=%v row %d", name, px, i)
			}
			require.Equal(t, 0.0, row.MACD.Float64, "px=%v", px)
			require.Equal(t, 0.0, row.MACDSignal.Float64, "px=%v", px)
			require.Equal(t, float64(modeltest.DefaultVolume), row.VolumeSMA.Float64, "px=%v", px)
		}
	}
}

func TestCompute_RisingSeriesRSIIsHundred(t *testing.T) {
	frame, err := Compute(modeltest.Rising("UP", 60, 10, 0.01))
	require.NoError(t, err)

	for i := RSIPeriod; i < frame.Len(); i++ {
		assert.Equal(t, 100.0, frame.RSI[i].Float64, "index %d", i)
	}
}
