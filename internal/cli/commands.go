package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/guregu/null/v6"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"MarketScanner/internal/api"
	"MarketScanner/internal/app"
	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/recorder"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the Telegram bot and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			runNow, _ := cmd.Flags().GetBool("run-now")
			if os.Getenv("RUN_ON_START") == "true" {
				runNow = true
			}
			return runServe(cfg, runNow)
		},
	}
	cmd.Flags().Bool("run-now", false, "Run the watchlist scan once at startup (also RUN_ON_START=true)")
	return cmd
}

func runServe(cfg *config.Config, runNow bool) error {
	log.Println("[INFO] MarketScanner starting...")
	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := a.Scheduler(ctx)
	if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if a.Telegram != nil {
		go a.Telegram.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[WARN] telegram not configured, notifications disabled")
	}

	if runNow {
		log.Println("[INFO] running watchlist scan now")
		go sched.RunScanNow()
	}

	handler := api.NewHandler(cfg, a.Collector, a.Scanner, a.Recorder, a.Publisher)
	if err := api.NewServer(cfg.API.Bind, cfg.API.CORSOrigins, handler).Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}

func newScanCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [SYMBOL...]",
		Short: "Scan symbols or a watchlist and print the ranked results",
		Example: `  marketscanner scan --watchlist tech --preset momentum
  marketscanner scan AAPL MSFT NVDA --rsi-min 30 --rsi-max 70 --sort volume_ratio
  marketscanner scan --watchlist finance --csv finance.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, cfg, args)
		},
	}

	f := cmd.Flags()
	f.String("watchlist", "", "Configured watchlist to scan when no symbols are given")
	f.String("preset", "", "Scoring preset (default from config)")
	f.String("sort", "", "Sort key: score, volume_ratio, rsi, change, distance_sma200")
	f.Int("top", 0, "Print only the first N results")
	f.String("csv", "", "Also write the results to this CSV file")
	f.Float64("rsi-min", 0, "Minimum RSI")
	f.Float64("rsi-max", 0, "Maximum RSI")
	f.Float64("min-price", 0, "Minimum price")
	f.Float64("max-price", 0, "Maximum price")
	f.Int64("min-volume", 0, "Minimum volume of the latest bar")
	f.Int("min-score", 0, "Minimum score")
	f.Bool("above-sma200", false, "Only symbols trading above their SMA200")
	f.Bool("volume-spike", false, "Only symbols with volume above 1.5x the 20-day average")
	return cmd
}

func runScan(cmd *cobra.Command, cfg *config.Config, args []string) error {
	f := cmd.Flags()
	watchlist, _ := f.GetString("watchlist")
	preset, _ := f.GetString("preset")
	sortFlag, _ := f.GetString("sort")
	top, _ := f.GetInt("top")
	csvPath, _ := f.GetString("csv")

	name, symbols, err := resolveSymbols(cfg, args, watchlist)
	if err != nil {
		return err
	}
	score, presetName, err := resolveScore(cfg, preset)
	if err != nil {
		return err
	}
	sortKey, err := scanner.ParseSortKey(firstNonEmpty(sortFlag, cfg.Scanner.Sort))
	if err != nil {
		return err
	}
	filters, err := filtersFromFlags(f, cfg.Scanner.Filters)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.Scanner.Run(ctx, scanner.Request{Symbols: symbols, Filters: filters, Score: score, Sort: sortKey})
	if rep == nil {
		return err
	}
	if err != nil {
		log.Printf("[WARN] scan interrupted, showing partial results: %v", err)
	}

	if _, recErr := a.Recorder.RecordScan(&recorder.ScanRun{
		Name: name, Preset: presetName,
		Requested: rep.Requested, Evaluated: rep.Evaluated, Skipped: len(rep.Skipped),
		Started: rep.Started, Finished: rep.Finished, Results: rep.Results,
	}); recErr != nil {
		log.Printf("[ERROR] record scan: %v", recErr)
	}
	if pubErr := a.Publisher.PublishScanCompleted(ctx, name, rep.Results); pubErr != nil {
		log.Printf("[ERROR] publish scan: %v", pubErr)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Scan %s · %s · sorted by %s", name, presetName, sortKey)))
	fmt.Fprintln(out, renderScanTable(rep.Results, top))
	fmt.Fprintln(out, renderScanSummary(rep))

	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer file.Close()
		if err := scanner.WriteCSV(file, rep.Results); err != nil {
			return err
		}
		fmt.Fprintf(out, "results written to %s\n", csvPath)
	}
	return nil
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Show indicators, signals, score and risk levels for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, _ := cmd.Flags().GetString("preset")
			score, _, err := resolveScore(cfg, preset)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			analysis, err := a.Collector.Analyze(ctx, strings.ToUpper(args[0]), score)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAnalysis(analysis))
			return nil
		},
	}
	cmd.Flags().String("preset", "", "Scoring preset (default from config)")
	return cmd
}

func newOverviewCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show major indices, sector moves and the ticker bar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ov, err := a.Collector.Overview(ctx, cfg.OverviewRequest())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOverview(ov))
			return nil
		},
	}
}

func newIngestCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [SYMBOL...]",
		Short: "Copy daily bars from a provider into the Postgres price store",
		RunE: func(cmd *cobra.Command, args []string) error {
			watchlist, _ := cmd.Flags().GetString("watchlist")
			source, _ := cmd.Flags().GetString("source")
			lookback, _ := cmd.Flags().GetInt("lookback")

			if cfg.Database.PostgresDSN == "" {
				return errors.New("database.postgres_dsn is required for ingest")
			}
			if source == "postgres" {
				return errors.New("ingest source must not be postgres")
			}
			_, symbols, err := resolveSymbols(cfg, args, watchlist)
			if err != nil {
				return err
			}
			if lookback <= 0 {
				lookback = cfg.DataSource.Lookback
			}

			srcCfg := *cfg
			srcCfg.DataSource.Provider = source
			src, err := app.NewProviderFetcher(&srcCfg)
			if err != nil {
				return err
			}
			if cfg.DataSource.RateLimit > 0 {
				src = collector.NewRateLimitedFetcher(src, cfg.DataSource.RateLimit, cfg.DataSource.Burst)
			}
			dst, err := collector.NewPostgresFetcher(cfg.Database.PostgresDSN)
			if err != nil {
				return err
			}
			defer dst.Close()

			ctx, cancel := signalContext()
			defer cancel()
			res, err := app.Ingest(ctx, src, dst, symbols, lookback)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d bars for %d symbols (%d failed)\n", res.Bars, res.Symbols, len(res.Failed))
			return nil
		},
	}
	cmd.Flags().String("watchlist", "", "Configured watchlist to ingest when no symbols are given")
	cmd.Flags().String("source", "yahoo", "Provider to read from: yahoo, financego or mock")
	cmd.Flags().Int("lookback", 0, "Bars per symbol (default data_source.lookback)")
	return cmd
}

func newPresetsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List scoring presets and watchlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Scoring presets"))
			fmt.Fprintln(out, renderPresets())
			fmt.Fprintln(out, titleStyle.Render("Watchlists"))
			fmt.Fprintln(out, renderWatchlists(cfg))
			return nil
		},
	}
}

// resolveSymbols returns explicit symbols as an "adhoc" scan, else the named
// watchlist, else the first scheduled watchlist.
func resolveSymbols(cfg *config.Config, args []string, watchlist string) (string, []string, error) {
	if len(args) > 0 {
		return "adhoc", args, nil
	}
	if watchlist == "" && len(cfg.Schedule.ScanWatchlists) > 0 {
		watchlist = cfg.Schedule.ScanWatchlists[0]
	}
	if watchlist == "" {
		return "", nil, errors.New("no symbols given and no watchlist configured")
	}
	symbols, err := cfg.Watchlist(watchlist)
	if err != nil {
		return "", nil, err
	}
	return strings.ToLower(watchlist), symbols, nil
}

func resolveScore(cfg *config.Config, preset string) (strategy.ScoreConfig, string, error) {
	if preset != "" {
		score, err := strategy.Preset(strings.ToLower(preset))
		return score, strings.ToLower(preset), err
	}
	score, err := cfg.ScoreConfig()
	if cfg.Scoring != nil {
		return score, "custom", err
	}
	return score, cfg.Scanner.Preset, err
}

// filtersFromFlags overlays every flag the user set on base.
func filtersFromFlags(f *pflag.FlagSet, base scanner.Filters) (scanner.Filters, error) {
	out := base
	optional := map[string]*null.Float{
		"rsi-min":   &out.RSIMin,
		"rsi-max":   &out.RSIMax,
		"min-price": &out.MinPrice,
		"max-price": &out.MaxPrice,
	}
	for name, dst := range optional {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetFloat64(name)
		if err != nil {
			return out, err
		}
		*dst = null.FloatFrom(v)
	}
	if f.Changed("min-volume") {
		out.MinVolume, _ = f.GetInt64("min-volume")
	}
	if f.Changed("min-score") {
		out.MinScore, _ = f.GetInt("min-score")
	}
	if f.Changed("above-sma200") {
		out.AboveSMA200, _ = f.GetBool("above-sma200")
	}
	if f.Changed("volume-spike") {
		out.VolumeSpike, _ = f.GetBool("volume-spike")
	}
	if out.RSIMin.Valid && out.RSIMax.Valid && out.RSIMin.Float64 > out.RSIMax.Float64 {
		return out, fmt.Errorf("rsi-min %.1f is above rsi-max %.1f", out.RSIMin.Float64, out.RSIMax.Float64)
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
