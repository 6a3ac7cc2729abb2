package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartJSON = `{
  "chart": {
    "result": [{
      "timestamp": [1704205800, 1704292200, 1704378600, 1704465000],
      "indicators": {
        "quote": [{
          "open":   [185.0, 183.0, null, 181.0],
          "high":   [186.0, 184.5, null, 183.0],
          "low":    [183.5, 182.0, null, 180.5],
          "close":  [184.0, 183.5, null, 182.0],
          "volume": [1000, 2000, null, 3000]
        }]
      }
    }],
    "error": null
  }
}`

func newYahooServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestYahooFetcher_Fetch(t *testing.T) {
	srv, req := newYahooServer(t, http.StatusOK, chartJSON)
	f := NewYahooFetcher(srv.URL, "", time.Second)

	series, err := f.Fetch(context.Background(), "AAPL", 60)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", req.URL.Path)
	assert.Equal(t, "1d", req.URL.Query().Get("interval"))
	assert.Equal(t, "3mo", req.URL.Query().Get("range"))

	require.Equal(t, 3, series.Len(), "null bar skipped")
	assert.Equal(t, "AAPL", series.Symbol)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), series.Bars[0].Date)
	assert.Equal(t, 182.0, series.Bars[2].Close)
	assert.Equal(t, int64(3000), series.Bars[2].Volume)
}

func TestYahooFetcher_TrimsToLookback(t *testing.T) {
	srv, _ := newYahooServer(t, http.StatusOK, chartJSON)
	f := NewYahooFetcher(srv.URL, "", time.Second)

	series, err := f.Fetch(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 183.5, series.Bars[0].Close)
}

func TestYahooFetcher_MapsIndexSymbol(t *testing.T) {
	srv, req := newYahooServer(t, http.StatusOK, chartJSON)
	f := NewYahooFetcher(srv.URL, "", time.Second)

	_, err := f.Fetch(context.Background(), "spx500", 10)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^GSPC", req.URL.Path)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "unknown symbol",
			status: http.StatusNotFound,
			body:   `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			want:   ErrSymbolNotFound,
		},
		{
			name:   "empty result",
			status: http.StatusOK,
			body:   `{"chart":{"result":[],"error":null}}`,
			want:   ErrEmptyResponse,
		},
		{
			name:   "inconsistent bar",
			status: http.StatusOK,
			body: `{"chart":{"result":[{"timestamp":[1704205800],"indicators":{"quote":[{
				"open":[10],"high":[9],"low":[8],"close":[9.5],"volume":[1]}]}}],"error":null}}`,
			want: ErrInvalidSeries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newYahooServer(t, tt.status, tt.body)
			f := NewYahooFetcher(srv.URL, "", time.Second)

			_, err := f.Fetch(context.Background(), "ZZZZ", 30)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "yahoo", fe.Source)
			assert.Equal(t, "ZZZZ", fe.Symbol)
		})
	}
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv, _ := newYahooServer(t, http.StatusInternalServerError, `oops`)
	f := NewYahooFetcher(srv.URL, "", time.Second)

	_, err := f.Fetch(context.Background(), "AAPL", 30)
	require.Error(t, err)
	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
	assert.NotErrorIs(t, err, ErrSymbolNotFound)
}

func TestChartRange(t *testing.T) {
	assert.Equal(t, "1mo", chartRange(10))
	assert.Equal(t, "3mo", chartRange(50))
	assert.Equal(t, "1y", chartRange(250))
	assert.Equal(t, "2y", chartRange(260))
	assert.Equal(t, "5y", chartRange(1000))
}
