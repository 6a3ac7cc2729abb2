package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// topResults is how many ranked symbols RecentScans returns per run.
const topResults = 5

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the API can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			name        TEXT,
			preset      TEXT,
			requested   INTEGER,
			evaluated   INTEGER,
			skipped     INTEGER,
			matched     INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_ts ON scan_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       INTEGER NOT NULL REFERENCES scan_runs(id),
			rank         INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			bar_date     TEXT,
			price        REAL,
			change_pct   REAL,
			volume       INTEGER,
			volume_ratio REAL,
			rsi          REAL,
			sma50        REAL,
			sma200       REAL,
			score        INTEGER,
			rating       TEXT,
			reasons      TEXT,
			stop_loss    REAL,
			target       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_results_run ON scan_results(run_id, rank)`,

		`CREATE TABLE IF NOT EXISTS signal_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			bar_date    TEXT,
			price       REAL,
			kind        TEXT,
			bias        TEXT,
			description TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_events_symbol ON signal_events(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan stores the run and its ranked results in one transaction.
func (r *SQLiteRecorder) RecordScan(run *ScanRun) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO scan_runs
		(timestamp, name, preset, requested, evaluated, skipped, matched, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.Started.Unix(), run.Name, run.Preset,
		run.Requested, run.Evaluated, run.Skipped, len(run.Results),
		run.Finished.Sub(run.Started).Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("scan run id: %w", err)
	}

	for i, sr := range run.Results {
		_, err := tx.Exec(`INSERT INTO scan_results
			(run_id, rank, symbol, bar_date, price, change_pct, volume, volume_ratio,
			 rsi, sma50, sma200, score, rating, reasons, stop_loss, target)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, i+1, sr.Symbol, sr.Date.Format("2006-01-02"), sr.Price, sr.ChangePct,
			sr.Volume, sr.VolumeRatio, sr.RSI, sr.SMA50, sr.SMA200,
			sr.Score, string(sr.Rating), strings.Join(sr.Reasons, ", "),
			sr.StopLoss, sr.Target,
		)
		if err != nil {
			return 0, fmt.Errorf("insert scan result %s: %w", sr.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func (r *SQLiteRecorder) RecordSignals(check *SignalCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	for _, s := range check.Signals {
		_, err := r.db.Exec(`INSERT INTO signal_events
			(timestamp, symbol, bar_date, price, kind, bias, description)
			VALUES (?,?,?,?,?,?,?)`,
			now, check.Symbol, check.Date.Format("2006-01-02"), check.Price,
			string(s.Kind), string(s.Bias), s.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecentScans returns the latest runs, newest first, each with its top symbols.
func (r *SQLiteRecorder) RecentScans(limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT id, timestamp, name, preset, requested, evaluated, skipped, matched, duration_ms
		FROM scan_runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	out := []ScanSummary{}
	for rows.Next() {
		var s ScanSummary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.Name, &s.Preset, &s.Requested, &s.Evaluated, &s.Skipped, &s.Matched, &s.DurationMS); err != nil {
			return nil, fmt.Errorf("scan scan run: %w", err)
		}
		s.Timestamp = time.Unix(ts, 0)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		top, err := r.topSymbols(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Top = top
	}
	return out, nil
}

func (r *SQLiteRecorder) topSymbols(runID int64) ([]string, error) {
	rows, err := r.db.Query(`SELECT symbol FROM scan_results WHERE run_id = ? ORDER BY rank LIMIT ?`, runID, topResults)
	if err != nil {
		return nil, fmt.Errorf("query scan results: %w", err)
	}
	defer rows.Close()

	top := []string{}
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		top = append(top, sym)
	}
	return top, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
