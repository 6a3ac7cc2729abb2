package collector

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"MarketScanner/internal/model"
)

// DefaultYahooBaseURL is the public chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	client    *resty.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a Yahoo fetcher. baseURL and proxyURL may be empty.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		client: client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// chartRange picks the smallest Yahoo range that covers lookback trading days.
func chartRange(lookback int) string {
	switch {
	case lookback <= 20:
		return "1mo"
	case lookback <= 60:
		return "3mo"
	case lookback <= 125:
		return "6mo"
	case lookback <= 250:
		return "1y"
	case lookback <= 500:
		return "2y"
	default:
		return "5y"
	}
}

func (f *YahooFetcher) Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
	var chart yahooChart
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("symbol", f.yahooSymbol(symbol)).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    chartRange(lookback),
		}).
		SetResult(&chart).
		SetError(&chart).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fetchErr(f.Name(), symbol, err)
	}

	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" || resp.StatusCode() == http.StatusNotFound {
			return nil, fetchErr(f.Name(), symbol, fmt.Errorf("%w: %s", ErrSymbolNotFound, chart.Chart.Error.Description))
		}
		return nil, fetchErr(f.Name(), symbol, fmt.Errorf("api error: %s", chart.Chart.Error.Description))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fetchErr(f.Name(), symbol, ErrSymbolNotFound)
	}
	if resp.IsError() {
		return nil, fetchErr(f.Name(), symbol, fmt.Errorf("status %d, body: %s", resp.StatusCode(), resp.String()))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fetchErr(f.Name(), symbol, ErrEmptyResponse)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.PriceBar{
			Date:   dayOf(time.Unix(ts, 0)),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(at(quote.Volume, i)),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return finish(f.Name(), symbol, dedupeDays(bars), lookback)
}

// dayOf truncates t to its UTC calendar date.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dedupeDays keeps the last bar of each date; Yahoo repeats the live session
// as an extra row while the market is open.
func dedupeDays(bars []model.PriceBar) []model.PriceBar {
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
