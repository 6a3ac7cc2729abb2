package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"MarketScanner/internal/model/modeltest"
)

func setupPostgres(t *testing.T) *PostgresFetcher {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in -short mode")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	f, err := NewPostgresFetcher(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestPostgresFetcher_RoundTrip(t *testing.T) {
	f := setupPostgres(t)
	ctx := context.Background()

	series := modeltest.Wave("NVDA", 60)
	require.NoError(t, f.SaveSeries(ctx, series))
	// upsert is idempotent
	require.NoError(t, f.SaveSeries(ctx, series))

	got, err := f.Fetch(ctx, "NVDA", 50)
	require.NoError(t, err)
	require.Equal(t, 50, got.Len())

	want := series.Bars[10:]
	for i, b := range got.Bars {
		assert.True(t, want[i].Date.Equal(b.Date), "bar %d date", i)
		assert.InDelta(t, want[i].Close, b.Close, 1e-6, "bar %d close", i)
		assert.Equal(t, want[i].Volume, b.Volume)
	}

	require.NoError(t, Migrate(f.db), "migrations re-run as no-op")
}
