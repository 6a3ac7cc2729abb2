package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/model"
)

// FormatScanReport formats the top ranked results of a scan into a Telegram message.
func FormatScanReport(name string, results []model.ScanResult, top int, at time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>MarketScanner</b> | %s | %s\n\n", html.EscapeString(name), at.Format("2006-01-02")))
	if len(results) == 0 {
		b.WriteString("No symbols passed the filters today.")
		return b.String()
	}

	if top <= 0 || top > len(results) {
		top = len(results)
	}
	for i, r := range results[:top] {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %.2f (%+.2f%%) score %d · %s\n",
			i+1, html.EscapeString(r.Symbol), r.Price, r.ChangePct, r.Score, r.Rating))
		if len(r.Reasons) > 0 {
			b.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(strings.Join(r.Reasons, ", "))))
		}
		if r.StopLoss.Valid && r.Target.Valid {
			b.WriteString(fmt.Sprintf("   SL %.2f / TP %.2f\n", r.StopLoss.Float64, r.Target.Float64))
		}
	}
	if rest := len(results) - top; rest > 0 {
		b.WriteString(fmt.Sprintf("\n…and %d more\n", rest))
	}
	return b.String()
}

// FormatSignalAlert formats the signals detected for one symbol. It returns
// "" when only the no-signal sentinel is present.
func FormatSignalAlert(symbol string, price float64, date time.Time, signals []model.SignalEvent) string {
	var lines []string
	for _, s := range signals {
		if s.Kind == model.SignalNone {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s <b>%s</b>: %s", biasIcon(s.Bias), s.Kind, html.EscapeString(s.Description)))
	}
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s</b> %.2f | %s\n\n", html.EscapeString(symbol), price, date.Format("2006-01-02")))
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// FormatAnalysis formats a single-symbol analysis.
func FormatAnalysis(a *collector.Analysis) string {
	var b strings.Builder
	l := a.Latest

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s\n\n", html.EscapeString(a.Symbol), l.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %.2f (%s)\n", l.Close, pct(a.ChangePct)))
	b.WriteString(fmt.Sprintf("SMA50: %s | SMA200: %s\n", val(l.SMA50), val(l.SMA200)))
	b.WriteString(fmt.Sprintf("RSI: %s | MACD: %s / %s\n", val(l.RSI), val(l.MACD), val(l.MACDSignal)))
	b.WriteString(fmt.Sprintf("Support: %s | Resistance: %s\n\n", val(a.Support), val(a.Resistance)))

	b.WriteString(fmt.Sprintf("💯 <b>Score %d</b> · %s\n", a.Score.Points, a.Score.Rating))
	if len(a.Score.Reasons) > 0 {
		b.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(strings.Join(a.Score.Reasons, ", "))))
	}
	if a.Risk.StopLoss.Valid {
		b.WriteString(fmt.Sprintf("   SL %.2f / TP %.2f\n", a.Risk.StopLoss.Float64, a.Risk.Target.Float64))
	}

	b.WriteString("\n")
	for _, s := range a.Signals {
		b.WriteString(fmt.Sprintf("%s %s\n", biasIcon(s.Bias), html.EscapeString(s.Description)))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return strings.Join([]string{
		"<b>Commands</b>",
		"/scan [watchlist] - run a scan now",
		"/analyze SYMBOL - indicators, score and signals",
		"/signals SYMBOL - today's signals only",
		"/watchlists - configured watchlists",
		"/presets - scoring presets",
		"/help - this message",
	}, "\n")
}

func biasIcon(b model.Bias) string {
	switch b {
	case model.BiasBullish:
		return "🟢"
	case model.BiasBearish:
		return "🔴"
	case model.BiasWatch:
		return "🟡"
	case model.BiasInfo:
		return "ℹ️"
	default:
		return "⚪"
	}
}

func val(f null.Float) string {
	if !f.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", f.Float64)
}

func pct(f null.Float) string {
	if !f.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", f.Float64)
}
