package collector

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"MarketScanner/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresFetcher serves daily bars from the price_data_daily table.
type PostgresFetcher struct {
	db *sql.DB
}

// NewPostgresFetcher connects to dsn and applies pending migrations.
func NewPostgresFetcher(dsn string) (*PostgresFetcher, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresFetcher{db: db}, nil
}

// NewPostgresFetcherWithDB wraps an existing connection without migrating.
func NewPostgresFetcherWithDB(db *sql.DB) *PostgresFetcher {
	return &PostgresFetcher{db: db}
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (f *PostgresFetcher) Name() string { return "postgres" }

func (f *PostgresFetcher) Close() error { return f.db.Close() }

func (f *PostgresFetcher) Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
	symbol = strings.ToUpper(symbol)
	query := `
		SELECT date, open, high, low, close, volume
		FROM price_data_daily
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := f.db.QueryContext(ctx, query, symbol, lookback)
	if err != nil {
		return nil, fetchErr(f.Name(), symbol, fmt.Errorf("failed to query price data: %w", err))
	}
	defer rows.Close()

	var bars []model.PriceBar
	for rows.Next() {
		var (
			b          model.PriceBar
			o, h, l, c decimal.Decimal
		)
		if err := rows.Scan(&b.Date, &o, &h, &l, &c, &b.Volume); err != nil {
			return nil, fetchErr(f.Name(), symbol, fmt.Errorf("failed to scan price data: %w", err))
		}
		b.Date = dayOf(b.Date)
		b.Open, b.High, b.Low, b.Close = toFloat(o), toFloat(h), toFloat(l), toFloat(c)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr(f.Name(), symbol, err)
	}
	if len(bars) == 0 {
		return nil, fetchErr(f.Name(), symbol, ErrSymbolNotFound)
	}

	// rows arrive newest first
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return finish(f.Name(), symbol, bars, lookback)
}

// SaveSeries upserts every bar of series in one transaction.
func (f *PostgresFetcher) SaveSeries(ctx context.Context, series *model.PriceSeries) error {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_data_daily (symbol, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	symbol := strings.ToUpper(series.Symbol)
	for _, b := range series.Bars {
		_, err := stmt.ExecContext(ctx, symbol, b.Date,
			decimal.NewFromFloat(b.Open), decimal.NewFromFloat(b.High),
			decimal.NewFromFloat(b.Low), decimal.NewFromFloat(b.Close), b.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert price data for %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
