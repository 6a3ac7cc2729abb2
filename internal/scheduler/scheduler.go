package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/events"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/recorder"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"

	"github.com/robfig/cron/v3"
)

// Sender delivers a formatted message. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks and bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Config    *config.Config
	Collector *collector.Collector
	Scanner   *scanner.Scanner
	Notifier  Sender // nil disables notifications
	Recorder  recorder.Recorder
	Publisher events.Publisher
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. A nil recorder or publisher is
// replaced by its no-op implementation.
func NewScheduler(ctx context.Context, cfg *config.Config, col *collector.Collector, sc *scanner.Scanner, sender Sender, rec recorder.Recorder, pub events.Publisher) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Config:    cfg,
		Collector: col,
		Scanner:   sc,
		Notifier:  sender,
		Recorder:  rec,
		Publisher: pub,
		Ctx:       ctx,
	}
}

// RegisterAll registers the watchlist scan and the daily signal check.
func (s *Scheduler) RegisterAll(scanCron, dailyCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyCheck); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes the scan task immediately (RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	log.Println("[INFO] running watchlist scan")
	for _, name := range s.Config.Schedule.ScanWatchlists {
		if _, err := s.ScanWatchlist(s.Ctx, name); err != nil {
			log.Printf("[ERROR] scan %s: %v", name, err)
			s.trySend(fmt.Sprintf("❌ scan %s failed: %v", name, err))
		}
	}
}

// ScanWatchlist scans one configured watchlist, then notifies, records and
// publishes the ranked results. Side-path failures are logged only.
func (s *Scheduler) ScanWatchlist(ctx context.Context, name string) (*scanner.Report, error) {
	symbols, err := s.Config.Watchlist(name)
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, name, symbols)
}

func (s *Scheduler) scan(ctx context.Context, name string, symbols []string) (*scanner.Report, error) {
	scoreCfg, err := s.Config.ScoreConfig()
	if err != nil {
		return nil, err
	}
	sortKey, err := scanner.ParseSortKey(s.Config.Scanner.Sort)
	if err != nil {
		return nil, err
	}

	rep, err := s.Scanner.Run(ctx, scanner.Request{
		Symbols: symbols,
		Filters: s.Config.Scanner.Filters,
		Score:   scoreCfg,
		Sort:    sortKey,
	})
	if rep == nil {
		return nil, err
	}
	if err != nil {
		log.Printf("[WARN] scan %s interrupted: %v", name, err)
	}

	s.trySend(notifier.FormatScanReport(name, rep.Results, s.Config.Scanner.Top, rep.Finished))

	if _, recErr := s.Recorder.RecordScan(&recorder.ScanRun{
		Name:      name,
		Preset:    s.presetName(),
		Requested: rep.Requested,
		Evaluated: rep.Evaluated,
		Skipped:   len(rep.Skipped),
		Started:   rep.Started,
		Finished:  rep.Finished,
		Results:   rep.Results,
	}); recErr != nil {
		log.Printf("[ERROR] record scan: %v", recErr)
	}

	if pubErr := s.Publisher.PublishScanCompleted(ctx, name, rep.Results); pubErr != nil {
		log.Printf("[ERROR] publish scan: %v", pubErr)
	}
	return rep, err
}

func (s *Scheduler) presetName() string {
	if s.Config.Scoring != nil {
		return "custom"
	}
	return s.Config.Scanner.Preset
}

// signalSymbols is the daily check universe: the explicit list, else every
// symbol of the scanned watchlists.
func (s *Scheduler) signalSymbols() []string {
	if len(s.Config.Schedule.SignalSymbols) > 0 {
		return scanner.Dedupe(s.Config.Schedule.SignalSymbols)
	}
	var all []string
	for _, name := range s.Config.Schedule.ScanWatchlists {
		symbols, err := s.Config.Watchlist(name)
		if err != nil {
			continue
		}
		all = append(all, symbols...)
	}
	return scanner.Dedupe(all)
}

func (s *Scheduler) dailyCheck() {
	log.Println("[INFO] running daily signal check")
	scoreCfg, err := s.Config.ScoreConfig()
	if err != nil {
		log.Printf("[ERROR] daily check: %v", err)
		return
	}

	alerts := 0
	for _, symbol := range s.signalSymbols() {
		if s.Ctx.Err() != nil {
			return
		}
		fired, err := s.checkSymbol(s.Ctx, symbol, scoreCfg)
		if err != nil {
			log.Printf("[WARN] daily check %s: %v", symbol, err)
			continue
		}
		if fired {
			alerts++
		}
	}
	log.Printf("[INFO] daily check done, %d symbols with signals", alerts)
}

// checkSymbol analyzes one symbol and handles its signals. It reports whether
// any rule fired.
func (s *Scheduler) checkSymbol(ctx context.Context, symbol string, cfg strategy.ScoreConfig) (bool, error) {
	a, err := s.Collector.Analyze(ctx, symbol, cfg)
	if err != nil {
		return false, err
	}
	msg := notifier.FormatSignalAlert(a.Symbol, a.Latest.Close, a.Latest.Date, a.Signals)
	if msg == "" {
		return false, nil
	}

	s.trySend(msg)
	if err := s.Recorder.RecordSignals(&recorder.SignalCheck{
		Symbol:  a.Symbol,
		Date:    a.Latest.Date,
		Price:   a.Latest.Close,
		Signals: a.Signals,
	}); err != nil {
		log.Printf("[ERROR] record signals: %v", err)
	}
	if err := s.Publisher.PublishSignals(ctx, a.Symbol, a.Latest.PriceBar, a.Signals); err != nil {
		log.Printf("[ERROR] publish signals: %v", err)
	}
	return true, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/scan@MyBot tech" in group chats
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch cmd {
	case "/scan":
		name := "tech"
		if len(s.Config.Schedule.ScanWatchlists) > 0 {
			name = s.Config.Schedule.ScanWatchlists[0]
		}
		if len(args) > 0 {
			name = strings.ToLower(args[0])
		}
		// the report itself is pushed by scan
		if _, err := s.ScanWatchlist(ctx, name); err != nil {
			return fmt.Sprintf("❌ scan %s failed: %v", name, err)
		}
		return ""
	case "/analyze", "/signals":
		if len(args) == 0 {
			return fmt.Sprintf("usage: %s SYMBOL", cmd)
		}
		cfg, err := s.Config.ScoreConfig()
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		a, err := s.Collector.Analyze(ctx, strings.ToUpper(args[0]), cfg)
		if err != nil {
			return fmt.Sprintf("❌ analyze %s failed: %v", args[0], err)
		}
		if cmd == "/analyze" {
			return notifier.FormatAnalysis(a)
		}
		if msg := notifier.FormatSignalAlert(a.Symbol, a.Latest.Close, a.Latest.Date, a.Signals); msg != "" {
			return msg
		}
		return fmt.Sprintf("%s: %s", a.Symbol, strategy.NoSignal.Description)
	case "/watchlists":
		var b strings.Builder
		b.WriteString("<b>Watchlists</b>\n")
		for _, name := range s.Config.WatchlistNames() {
			b.WriteString(fmt.Sprintf("• %s: %s\n", name, strings.Join(s.Config.Watchlists[name], ", ")))
		}
		return b.String()
	case "/presets":
		return "<b>Scoring presets</b>\n" + strings.Join(strategy.PresetNames(), ", ") +
			"\nactive: " + s.presetName()
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || text == "" {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
