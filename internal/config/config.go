package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "config.yaml"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider       string  `yaml:"provider"`
		BaseURL        string  `yaml:"base_url"`
		Lookback       int     `yaml:"lookback"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit"`
		Burst          int     `yaml:"burst"`
	} `yaml:"data_source"`
	Cache struct {
		Backend       string `yaml:"backend"`
		TTLSeconds    int    `yaml:"ttl_seconds"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		Prefix        string `yaml:"prefix"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	API struct {
		Bind        string   `yaml:"bind"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"api"`
	Schedule struct {
		ScanCron       string   `yaml:"scan_cron"`
		DailyCron      string   `yaml:"daily_cron"`
		ScanWatchlists []string `yaml:"scan_watchlists"`
		SignalSymbols  []string `yaml:"signal_symbols"`
	} `yaml:"schedule"`
	Scanner struct {
		Workers        int             `yaml:"workers"`
		MinBars        int             `yaml:"min_bars"`
		TimeoutSeconds int             `yaml:"timeout_seconds"`
		Preset         string          `yaml:"preset"`
		Sort           string          `yaml:"sort"`
		Top            int             `yaml:"top"`
		Filters        scanner.Filters `yaml:"filters"`
	} `yaml:"scanner"`
	Overview struct {
		Indices           []collector.IndexRef `yaml:"indices"`
		Ticker            []string             `yaml:"ticker"`
		SectorSample      int                  `yaml:"sector_sample"`
		ExcludeWatchlists []string             `yaml:"exclude_watchlists"`
	} `yaml:"overview"`
	// Scoring replaces the named preset entirely when present.
	Scoring    *strategy.ScoreConfig `yaml:"scoring"`
	Watchlists map[string][]string   `yaml:"watchlists"`
	Proxy      string                `yaml:"proxy"`
}

// DefaultWatchlists are the popular-stock groups used when the config file
// defines none.
func DefaultWatchlists() map[string][]string {
	return map[string][]string{
		"tech":       {"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "AMD", "INTC"},
		"ev":         {"TSLA", "F", "GM", "RIVN", "LCID"},
		"finance":    {"JPM", "BAC", "GS", "MS", "WFC", "V", "MA"},
		"healthcare": {"JNJ", "UNH", "PFE", "ABBV", "TMO"},
		"crypto":     {"BTC-USD", "ETH-USD", "BNB-USD"},
		"indices":    {"^GSPC", "^DJI", "^IXIC", "^RUT"},
	}
}

// Path resolves the config file location from an explicit flag value, then
// CONFIG_PATH, then DefaultPath.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Database.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("API_BIND"); v != "" {
		c.API.Bind = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		c.Schedule.DailyCron = v
	}
	if v := os.Getenv("SCAN_PRESET"); v != "" {
		c.Scanner.Preset = v
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scanner.Workers = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = "https://api.telegram.org"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.DataSource.Lookback == 0 {
		c.DataSource.Lookback = 260
	}
	if c.DataSource.TimeoutSeconds == 0 {
		c.DataSource.TimeoutSeconds = 15
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 1
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "marketscanner:"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_scanner.db"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "market.signals"
	}
	if c.API.Bind == "" {
		c.API.Bind = ":8080"
	}
	if len(c.API.CORSOrigins) == 0 {
		c.API.CORSOrigins = []string{"*"}
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 16 * * 1-5"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 0 22 * * 1-5"
	}
	if len(c.Watchlists) == 0 {
		c.Watchlists = DefaultWatchlists()
	}
	if len(c.Overview.Indices) == 0 {
		c.Overview.Indices = collector.DefaultIndices()
	}
	if len(c.Overview.Ticker) == 0 {
		c.Overview.Ticker = collector.DefaultTicker()
	}
	if c.Overview.SectorSample == 0 {
		c.Overview.SectorSample = collector.DefaultSectorSample
	}
	if c.Overview.ExcludeWatchlists == nil {
		c.Overview.ExcludeWatchlists = []string{"indices", "crypto"}
	}
	if len(c.Schedule.ScanWatchlists) == 0 {
		c.Schedule.ScanWatchlists = []string{"tech"}
	}
	if c.Scanner.Workers == 0 {
		c.Scanner.Workers = 4
	}
	if c.Scanner.MinBars == 0 {
		c.Scanner.MinBars = 50
	}
	if c.Scanner.TimeoutSeconds == 0 {
		c.Scanner.TimeoutSeconds = 20
	}
	if c.Scanner.Preset == "" {
		c.Scanner.Preset = strategy.PresetClassic
	}
	if c.Scanner.Sort == "" {
		c.Scanner.Sort = string(scanner.SortScore)
	}
	if c.Scanner.Top == 0 {
		c.Scanner.Top = 10
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.DataSource.Provider {
	case "yahoo", "financego", "mock":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for provider postgres")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.Lookback < c.Scanner.MinBars {
		return fmt.Errorf("data_source.lookback (%d) must be at least scanner.min_bars (%d)", c.DataSource.Lookback, c.Scanner.MinBars)
	}
	if c.DataSource.RateLimit < 0 {
		return fmt.Errorf("data_source.rate_limit must not be negative")
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for backend redis")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Scanner.Workers <= 0 {
		return fmt.Errorf("scanner.workers must be positive")
	}
	if c.Scanner.MinBars < 2 {
		return fmt.Errorf("scanner.min_bars must be at least 2")
	}
	if _, err := scanner.ParseSortKey(c.Scanner.Sort); err != nil {
		return fmt.Errorf("scanner.sort: %w", err)
	}
	if _, err := c.ScoreConfig(); err != nil {
		return err
	}
	for _, name := range c.Schedule.ScanWatchlists {
		if _, ok := c.Watchlists[name]; !ok {
			return fmt.Errorf("schedule.scan_watchlists: unknown watchlist %q", name)
		}
	}
	return nil
}

// ScoreConfig returns the active scoring configuration: the explicit scoring
// section when present, otherwise the named preset.
func (c *Config) ScoreConfig() (strategy.ScoreConfig, error) {
	if c.Scoring != nil {
		if err := c.Scoring.Validate(); err != nil {
			return strategy.ScoreConfig{}, fmt.Errorf("scoring: %w", err)
		}
		return *c.Scoring, nil
	}
	cfg, err := strategy.Preset(c.Scanner.Preset)
	if err != nil {
		return strategy.ScoreConfig{}, fmt.Errorf("scanner.preset: %w", err)
	}
	return cfg, nil
}

// OverviewRequest builds the market overview request. Every watchlist not
// excluded counts as a sector.
func (c *Config) OverviewRequest() collector.OverviewRequest {
	excluded := make(map[string]bool, len(c.Overview.ExcludeWatchlists))
	for _, name := range c.Overview.ExcludeWatchlists {
		excluded[strings.ToLower(name)] = true
	}
	sectors := make(map[string][]string)
	for name, symbols := range c.Watchlists {
		if !excluded[strings.ToLower(name)] {
			sectors[name] = symbols
		}
	}
	return collector.OverviewRequest{
		Indices:      c.Overview.Indices,
		Sectors:      sectors,
		SectorSample: c.Overview.SectorSample,
		Ticker:       c.Overview.Ticker,
	}
}

// Watchlist returns the symbols of a named watchlist.
func (c *Config) Watchlist(name string) ([]string, error) {
	symbols, ok := c.Watchlists[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown watchlist %q", name)
	}
	return symbols, nil
}

// WatchlistNames returns the configured watchlist names, sorted.
func (c *Config) WatchlistNames() []string {
	names := make([]string, 0, len(c.Watchlists))
	for name := range c.Watchlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func (c *Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}

func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scanner.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
