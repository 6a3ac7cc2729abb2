package collector

import (
	"context"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"MarketScanner/internal/model"
)

// FinanceGoFetcher implements Fetcher on top of piquette/finance-go.
type FinanceGoFetcher struct {
	now func() time.Time
}

func NewFinanceGoFetcher() *FinanceGoFetcher {
	return &FinanceGoFetcher{now: time.Now}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

// calendarSpan converts trading days to a calendar window with room for
// weekends and holidays.
func calendarSpan(lookback int) time.Duration {
	days := lookback*7/5 + 10
	return time.Duration(days) * 24 * time.Hour
}

func (f *FinanceGoFetcher) Fetch(ctx context.Context, symbol string, lookback int) (*model.PriceSeries, error) {
	// finance-go has no per-call context; cancellation is checked between bars.
	end := f.now()
	start := end.Add(-calendarSpan(lookback))

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	if err := ctx.Err(); err != nil {
		return nil, fetchErr(f.Name(), symbol, err)
	}
	iter := chart.Get(params)

	var bars []model.PriceBar
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fetchErr(f.Name(), symbol, err)
		}
		bar := iter.Bar()
		bars = append(bars, model.PriceBar{
			Date:   dayOf(time.Unix(int64(bar.Timestamp), 0)),
			Open:   toFloat(bar.Open),
			High:   toFloat(bar.High),
			Low:    toFloat(bar.Low),
			Close:  toFloat(bar.Close),
			Volume: int64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fetchErr(f.Name(), symbol, err)
	}
	return finish(f.Name(), symbol, dedupeDays(bars), lookback)
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
