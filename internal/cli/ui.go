package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guregu/null/v6"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/model"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	bullishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	bearishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderScanTable(results []model.ScanResult, top int) string {
	if len(results) == 0 {
		return mutedStyle.Render("No symbols passed the filters.")
	}
	if top <= 0 || top > len(results) {
		top = len(results)
	}

	t := newTable("#", "Symbol", "Price", "Chg %", "Vol ratio", "RSI", "vs SMA200", "Score", "Rating", "Reasons")
	for i, r := range results[:top] {
		t.Row(
			fmt.Sprint(i+1),
			r.Symbol,
			fmt.Sprintf("%.2f", r.Price),
			colorSigned(r.ChangePct),
			fmtFloat(r.VolumeRatio, "%.2fx"),
			fmtFloat(r.RSI, "%.1f"),
			fmtFloat(r.DistanceFromSMA200Pct, "%+.1f%%"),
			fmt.Sprint(r.Score),
			string(r.Rating),
			strings.Join(r.Reasons, ", "),
		)
	}
	return t.String()
}

func renderScanSummary(rep *scanner.Report) string {
	s := fmt.Sprintf("%d requested · %d evaluated · %d matched · %d skipped · %s",
		rep.Requested, rep.Evaluated, len(rep.Results), len(rep.Skipped), rep.Finished.Sub(rep.Started).Round(time.Millisecond))
	for _, sk := range rep.Skipped {
		s += "\n  " + mutedStyle.Render(fmt.Sprintf("skipped %s: %v", sk.Symbol, sk.Err))
	}
	return s
}

func renderAnalysis(a *collector.Analysis) string {
	var b strings.Builder
	l := a.Latest

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %.2f", a.Symbol, l.Close)))
	if a.ChangePct.Valid {
		b.WriteString(" " + colorSigned(a.ChangePct.Float64))
	}
	b.WriteString(mutedStyle.Render("  " + l.Date.Format("2006-01-02")))
	b.WriteString("\n")

	t := newTable("Indicator", "Value", "Indicator", "Value")
	t.Row("SMA20", fmtFloat(l.SMA20, "%.2f"), "EMA12", fmtFloat(l.EMA12, "%.2f"))
	t.Row("SMA50", fmtFloat(l.SMA50, "%.2f"), "EMA26", fmtFloat(l.EMA26, "%.2f"))
	t.Row("SMA150", fmtFloat(l.SMA150, "%.2f"), "EMA50", fmtFloat(l.EMA50, "%.2f"))
	t.Row("SMA200", fmtFloat(l.SMA200, "%.2f"), "RSI(14)", fmtFloat(l.RSI, "%.1f"))
	t.Row("MACD", fmtFloat(l.MACD, "%.3f"), "Signal", fmtFloat(l.MACDSignal, "%.3f"))
	t.Row("BB high", fmtFloat(l.BBHigh, "%.2f"), "BB low", fmtFloat(l.BBLow, "%.2f"))
	t.Row("ATR(14)", fmtFloat(l.ATR, "%.2f"), "Vol SMA20", fmtFloat(l.VolumeSMA, "%.0f"))
	t.Row("Support", fmtFloat(a.Support, "%.2f"), "Resistance", fmtFloat(a.Resistance, "%.2f"))
	t.Row("52w high", fmtFloat(a.High52w, "%.2f"), "52w low", fmtFloat(a.Low52w, "%.2f"))
	b.WriteString(t.String())
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Score %d · %s", a.Score.Points, a.Score.Rating))
	if len(a.Score.Reasons) > 0 {
		b.WriteString(mutedStyle.Render("  (" + strings.Join(a.Score.Reasons, ", ") + ")"))
	}
	b.WriteString("\n")
	if a.Risk.StopLoss.Valid && a.Risk.Target.Valid {
		b.WriteString(fmt.Sprintf("Stop loss %.2f · Target %.2f\n", a.Risk.StopLoss.Float64, a.Risk.Target.Float64))
	}

	b.WriteString("\n")
	for _, s := range a.Signals {
		b.WriteString(biasStyle(s.Bias).Render(fmt.Sprintf("• %s", s.Description)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderOverview prints index quotes, sector averages and a one-line ticker.
// Changes are close vs open of the latest session.
func renderOverview(ov *collector.Overview) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Major indices"))
	b.WriteString("\n")
	t := newTable("Index", "Price", "Chg %")
	for _, q := range ov.Indices {
		if q.Error != "" {
			t.Row(q.Name, "n/a", mutedStyle.Render("n/a"))
			continue
		}
		chg := "n/a"
		if q.ChangePct.Valid {
			chg = colorSigned(q.ChangePct.Float64)
		}
		t.Row(q.Name, fmtFloat(q.Price, "%.2f"), chg)
	}
	b.WriteString(t.String())
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Sector performance"))
	b.WriteString("\n")
	if len(ov.Sectors) == 0 {
		b.WriteString(mutedStyle.Render("No sector data."))
	} else {
		st := newTable("Sector", "Avg chg %", "Samples")
		for _, s := range ov.Sectors {
			st.Row(s.Sector, colorSigned(s.AvgChangePct), fmt.Sprint(s.Samples))
		}
		b.WriteString(st.String())
	}
	b.WriteString("\n")

	items := make([]string, 0, len(ov.Ticker))
	for _, q := range ov.Ticker {
		item := fmt.Sprintf("%s: $%.2f", q.Name, q.Price.Float64)
		if q.ChangePct.Valid {
			arrow := "▲"
			if q.ChangePct.Float64 < 0 {
				arrow = "▼"
			}
			chg := fmt.Sprintf(" %s%.1f%%", arrow, math.Abs(q.ChangePct.Float64))
			if q.ChangePct.Float64 < 0 {
				chg = bearishStyle.Render(chg)
			} else {
				chg = bullishStyle.Render(chg)
			}
			item += chg
		}
		items = append(items, item)
	}
	if len(items) > 0 {
		b.WriteString(strings.Join(items, mutedStyle.Render("  |  ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPresets() string {
	t := newTable("Preset", ">SMA50", ">SMA200", "RSI band", "Oversold", "MACD", "Volume", "Momentum", "Max", "Tiers")
	for _, name := range strategy.PresetNames() {
		c, _ := strategy.Preset(name)
		tiers := make([]string, 0, len(c.Tiers))
		for _, tier := range c.Tiers {
			tiers = append(tiers, fmt.Sprintf("%s≥%d", tier.Rating, tier.MinScore))
		}
		t.Row(
			name,
			fmt.Sprint(c.AboveSMA50Points),
			fmt.Sprint(c.AboveSMA200Points),
			fmt.Sprintf("%d (%.0f-%.0f)", c.RSIBandPoints, c.RSIBandLow, c.RSIBandHigh),
			fmt.Sprintf("%d (<%.0f)", c.RSIOversoldPoints, c.RSIOversold),
			fmt.Sprint(c.MACDPoints),
			fmt.Sprintf("%d (x%.1f)", c.VolumePoints, c.VolumeMultiplier),
			fmt.Sprint(c.MomentumPoints),
			fmt.Sprint(c.MaxScore()),
			strings.Join(tiers, ", "),
		)
	}
	return t.String()
}

func renderWatchlists(cfg *config.Config) string {
	t := newTable("Watchlist", "Symbols")
	for _, name := range cfg.WatchlistNames() {
		t.Row(name, strings.Join(cfg.Watchlists[name], " "))
	}
	return t.String()
}

func fmtFloat(f null.Float, format string) string {
	if !f.Valid {
		return "n/a"
	}
	return fmt.Sprintf(format, f.Float64)
}

func colorSigned(v float64) string {
	s := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return bullishStyle.Render(s)
	case v < 0:
		return bearishStyle.Render(s)
	default:
		return s
	}
}

func biasStyle(b model.Bias) lipgloss.Style {
	switch b {
	case model.BiasBullish:
		return bullishStyle
	case model.BiasBearish:
		return bearishStyle
	default:
		return lipgloss.NewStyle()
	}
}
