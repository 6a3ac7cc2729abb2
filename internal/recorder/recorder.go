package recorder

import (
	"time"

	"MarketScanner/internal/model"
)

// ScanRun holds everything recorded about one batch scan.
type ScanRun struct {
	Name      string // watchlist or "adhoc"
	Preset    string
	Requested int
	Evaluated int
	Skipped   int
	Started   time.Time
	Finished  time.Time
	Results   []model.ScanResult // ranked
}

// SignalCheck is the outcome of a daily signal check for one symbol.
type SignalCheck struct {
	Symbol  string
	Date    time.Time // bar date
	Price   float64
	Signals []model.SignalEvent
}

// ScanSummary is a stored scan run as read back by RecentScans.
type ScanSummary struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Name       string    `json:"name"`
	Preset     string    `json:"preset"`
	Requested  int       `json:"requested"`
	Evaluated  int       `json:"evaluated"`
	Skipped    int       `json:"skipped"`
	Matched    int       `json:"matched"`
	DurationMS int64     `json:"duration_ms"`
	Top        []string  `json:"top"`
}

// Recorder persists scan history for later analysis.
type Recorder interface {
	RecordScan(run *ScanRun) (int64, error)
	RecordSignals(check *SignalCheck) error
	RecentScans(limit int) ([]ScanSummary, error)
	Close() error
}
