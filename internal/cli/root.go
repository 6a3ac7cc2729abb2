package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"MarketScanner/internal/config"
	"MarketScanner/internal/logging"
)

// Version is overridden at build time with -ldflags "-X MarketScanner/internal/cli.Version=...".
var Version = "dev"

// NewRootCmd creates the root command. Subcommands read the loaded config
// through the returned pointer once PersistentPreRunE has run.
func NewRootCmd() *cobra.Command {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "marketscanner",
		Short: "Technical indicator engine and batch stock scanner",
		Long: `MarketScanner computes daily technical indicators (SMA, EMA, RSI, MACD,
Bollinger Bands, ATR), detects crossover and breakout signals, scores each
symbol with a configurable preset and scans whole watchlists.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			loaded, err := config.Load(config.Path(path))
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			*cfg = *loaded

			if topics, _ := cmd.Flags().GetString("debug"); topics != "" {
				logging.Configure(topics)
			}
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newScanCmd(cfg))
	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newOverviewCmd(cfg))
	rootCmd.AddCommand(newIngestCmd(cfg))
	rootCmd.AddCommand(newPresetsCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().String("config", "", "Configuration file path (default $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().String("debug", "", "Debug topics, e.g. rsi,scan or all")

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := NewRootCmd().Execute(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "MarketScanner %s\n", Version)
		},
	}
}
