package scanner

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"MarketScanner/internal/model"
)

var csvHeader = []string{
	"Symbol", "Date", "Price", "Change %", "Volume", "Volume Ratio",
	"RSI", "SMA50", "SMA200", "MACD", "MACD Signal", "ATR", "Dist SMA200 %",
	"Score", "Rating", "Reasons", "Signals",
	"Stop Loss", "Target", "Support", "Resistance",
}

// WriteCSV exports results with a header row. Undefined values are empty cells.
func WriteCSV(w io.Writer, results []model.ScanResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		kinds := make([]string, 0, len(r.Signals))
		for _, s := range r.Signals {
			if s.Kind != model.SignalNone {
				kinds = append(kinds, string(s.Kind))
			}
		}
		row := []string{
			r.Symbol,
			r.Date.Format("2006-01-02"),
			num(r.Price),
			num(r.ChangePct),
			strconv.FormatInt(r.Volume, 10),
			opt(r.VolumeRatio),
			opt(r.RSI),
			opt(r.SMA50),
			opt(r.SMA200),
			opt(r.MACD),
			opt(r.MACDSignal),
			opt(r.ATR),
			opt(r.DistanceFromSMA200Pct),
			strconv.Itoa(r.Score),
			string(r.Rating),
			strings.Join(r.Reasons, ", "),
			strings.Join(kinds, "|"),
			opt(r.StopLoss),
			opt(r.Target),
			opt(r.Support),
			opt(r.Resistance),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func opt(f null.Float) string {
	if !f.Valid {
		return ""
	}
	return num(f.Float64)
}
