package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/config"
	"MarketScanner/internal/model"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"
)

func writeMockConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
data_source:
  provider: mock
database:
  sqlite_path: %s
watchlists:
  core: [AAPL, MSFT, NVDA]
schedule:
  scan_watchlists: [core]
`, filepath.Join(dir, "scanner.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanCommand(t *testing.T) {
	path := writeMockConfig(t)
	csvPath := filepath.Join(t.TempDir(), "out.csv")

	out, err := run(t, "scan", "--config", path, "--preset", "weighted", "--csv", csvPath)
	require.NoError(t, err)

	for _, sym := range []string{"AAPL", "MSFT", "NVDA"} {
		assert.Contains(t, out, sym)
	}
	assert.Contains(t, out, "Scan core · weighted")
	assert.Contains(t, out, "3 requested")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 4)
}

func TestScanCommand_Errors(t *testing.T) {
	path := writeMockConfig(t)

	_, err := run(t, "scan", "--config", path, "--watchlist", "nope")
	assert.Error(t, err)

	_, err = run(t, "scan", "AAPL", "--config", path, "--sort", "alpha")
	assert.Error(t, err)

	_, err = run(t, "scan", "AAPL", "--config", path, "--rsi-min", "70", "--rsi-max", "30")
	assert.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := run(t, "analyze", "nvda", "--config", writeMockConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "NVDA")
	assert.Contains(t, out, "RSI(14)")
	assert.Contains(t, out, "Score")
}

func TestPresetsCommand(t *testing.T) {
	out, err := run(t, "presets", "--config", writeMockConfig(t))
	require.NoError(t, err)
	for _, name := range strategy.PresetNames() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "AAPL MSFT NVDA")
}

func TestOverviewCommand(t *testing.T) {
	out, err := run(t, "overview", "--config", writeMockConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "S&P 500")
	assert.Contains(t, out, "Russell 2000")
	assert.Contains(t, out, "core")
	assert.Contains(t, out, "BTC: $")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "MarketScanner "+Version)
}

func TestIngestRequiresPostgres(t *testing.T) {
	_, err := run(t, "ingest", "AAPL", "--config", writeMockConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn")
}

func TestFiltersFromFlags(t *testing.T) {
	cmd := newScanCmd(&config.Config{})
	require.NoError(t, cmd.Flags().Parse([]string{"--rsi-min", "30", "--min-volume", "500000", "--above-sma200"}))

	base := scanner.Filters{MinScore: 2}
	f, err := filtersFromFlags(cmd.Flags(), base)
	require.NoError(t, err)

	assert.True(t, f.RSIMin.Valid)
	assert.Equal(t, 30.0, f.RSIMin.Float64)
	assert.False(t, f.RSIMax.Valid)
	assert.Equal(t, int64(500000), f.MinVolume)
	assert.True(t, f.AboveSMA200)
	assert.False(t, f.VolumeSpike)
	assert.Equal(t, 2, f.MinScore, "unset flags keep the configured value")
}

func TestResolveSymbols(t *testing.T) {
	cfg := &config.Config{Watchlists: map[string][]string{"core": {"A", "B"}}}
	cfg.Schedule.ScanWatchlists = []string{"core"}

	name, symbols, err := resolveSymbols(cfg, []string{"X"}, "core")
	require.NoError(t, err)
	assert.Equal(t, "adhoc", name)
	assert.Equal(t, []string{"X"}, symbols)

	name, symbols, err = resolveSymbols(cfg, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "core", name)
	assert.Equal(t, []string{"A", "B"}, symbols)

	_, _, err = resolveSymbols(cfg, nil, "missing")
	assert.Error(t, err)
}

func TestRenderScanTable(t *testing.T) {
	assert.Contains(t, renderScanTable(nil, 0), "No symbols")

	results := []model.ScanResult{
		{Symbol: "AAA", Price: 10, Score: 4, Rating: model.RatingStrongBuy},
		{Symbol: "BBB", Price: 20, Score: 2, Rating: model.RatingWatch},
	}
	out := renderScanTable(results, 1)
	assert.Contains(t, out, "AAA")
	assert.Contains(t, out, "Strong Buy")
	assert.Contains(t, out, "n/a")
	assert.NotContains(t, out, "BBB")
}
