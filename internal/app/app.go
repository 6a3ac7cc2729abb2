// Package app assembles the runtime components from configuration.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"MarketScanner/internal/cache"
	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/events"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/recorder"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/scheduler"
)

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config    *config.Config
	Fetcher   collector.Fetcher
	Collector *collector.Collector
	Scanner   *scanner.Scanner
	Recorder  recorder.Recorder
	Publisher events.Publisher
	Telegram  *notifier.TelegramNotifier // nil when telegram is not configured

	closers []func() error
}

// New builds every component cfg enables. Infrastructure that is configured
// but unreachable is an error, except the recorder, which falls back to Noop.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	base, err := NewProviderFetcher(cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := base.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
	var fetcher collector.Fetcher = base
	if cfg.DataSource.RateLimit > 0 {
		fetcher = collector.NewRateLimitedFetcher(fetcher, cfg.DataSource.RateLimit, cfg.DataSource.Burst)
	}

	compute := collector.ComputeFunc(nil)
	if cfg.Cache.Backend != "none" {
		store, err := newStore(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		fetcher = cache.NewCachedFetcher(fetcher, store, cfg.CacheTTL())
		compute = cache.NewFrameCache(store, cfg.CacheTTL()).Compute
	}
	a.Fetcher = fetcher

	a.Collector = collector.NewCollector(fetcher)
	a.Collector.Lookback = cfg.DataSource.Lookback
	if compute != nil {
		a.Collector.Compute = compute
	}

	sortKey, err := scanner.ParseSortKey(cfg.Scanner.Sort)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Scanner = scanner.New(fetcher)
	a.Scanner.Compute = a.Collector.Compute
	a.Scanner.Workers = cfg.Scanner.Workers
	a.Scanner.MinBars = cfg.Scanner.MinBars
	a.Scanner.Lookback = cfg.DataSource.Lookback
	a.Scanner.Timeout = cfg.ScanTimeout()
	a.Scanner.Sort = sortKey

	a.Recorder = newRecorder(cfg.Database.SQLitePath)
	a.closers = append(a.closers, a.Recorder.Close)

	if cfg.KafkaEnabled() {
		p := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.Publisher = p
		a.closers = append(a.closers, p.Close)
		log.Printf("[INFO] kafka publisher: %v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		a.Publisher = events.Noop{}
	}

	if cfg.TelegramEnabled() {
		a.Telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.BaseURL, cfg.Proxy)
	}

	log.Printf("[INFO] data source: %s, cache: %s", base.Name(), cfg.Cache.Backend)
	return a, nil
}

// NewProviderFetcher returns the uncached fetcher for data_source.provider.
func NewProviderFetcher(cfg *config.Config) (collector.Fetcher, error) {
	switch cfg.DataSource.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy, cfg.FetchTimeout()), nil
	case "financego":
		return collector.NewFinanceGoFetcher(), nil
	case "postgres":
		return collector.NewPostgresFetcher(cfg.Database.PostgresDSN)
	case "mock":
		return collector.NewMockFetcher(), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.DataSource.Provider)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == "redis" {
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.Prefix)
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		return store, nil
	}
	return cache.NewMemoryStore(), nil
}

func newRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("[WARN] create data dir failed, using noop recorder: %v", err)
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// Scheduler returns a scheduler bound to the app's components.
func (a *App) Scheduler(ctx context.Context) *scheduler.Scheduler {
	var sender scheduler.Sender
	if a.Telegram != nil {
		sender = a.Telegram
	}
	return scheduler.NewScheduler(ctx, a.Config, a.Collector, a.Scanner, sender, a.Recorder, a.Publisher)
}

// Close releases resources in reverse creation order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[WARN] close: %v", err)
		}
	}
	a.closers = nil
}
