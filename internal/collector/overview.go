package collector

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"
)

// QuoteLookback is the number of daily bars fetched for a quote.
const QuoteLookback = 5

// DefaultSectorSample is how many symbols of each watchlist feed its sector average.
const DefaultSectorSample = 3

const overviewWorkers = 4

// IndexRef names a market index.
type IndexRef struct {
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// DefaultIndices are the major US indices shown in the overview.
func DefaultIndices() []IndexRef {
	return []IndexRef{
		{Name: "S&P 500", Symbol: "^GSPC"},
		{Name: "Dow Jones", Symbol: "^DJI"},
		{Name: "NASDAQ", Symbol: "^IXIC"},
		{Name: "Russell 2000", Symbol: "^RUT"},
	}
}

// DefaultTicker is the symbol set of the scrolling ticker bar.
func DefaultTicker() []string {
	return []string{"^GSPC", "^IXIC", "NVDA", "AAPL", "TSLA", "BTC-USD", "MSFT", "AMZN"}
}

// DisplayName strips index and crypto decorations: ^GSPC -> GSPC, BTC-USD -> BTC.
func DisplayName(symbol string) string {
	return strings.TrimSuffix(strings.TrimPrefix(symbol, "^"), "-USD")
}

// Quote is the latest session of one symbol. ChangePct is close vs open of
// that session, not vs the previous close.
type Quote struct {
	Symbol    string     `json:"symbol"`
	Name      string     `json:"name"`
	Date      time.Time  `json:"date"`
	Price     null.Float `json:"price"`
	ChangePct null.Float `json:"change_pct"`
	Error     string     `json:"error,omitempty"`
}

// SectorMove is the average session change of a watchlist sample.
type SectorMove struct {
	Sector       string  `json:"sector"`
	AvgChangePct float64 `json:"avg_change_pct"`
	Samples      int     `json:"samples"`
}

// OverviewRequest selects what Overview fetches. Sectors maps a sector name
// to its symbols; only the first SectorSample of each are used.
type OverviewRequest struct {
	Indices      []IndexRef
	Sectors      map[string][]string
	SectorSample int
	Ticker       []string
}

// Overview is a market snapshot: indices, sector moves and the ticker bar.
type Overview struct {
	Indices     []Quote      `json:"indices"`
	Sectors     []SectorMove `json:"sectors"`
	Ticker      []Quote      `json:"ticker"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Quote fetches the latest session of symbol.
func (c *Collector) Quote(ctx context.Context, symbol string) (Quote, error) {
	q := Quote{Symbol: strings.ToUpper(symbol), Name: DisplayName(strings.ToUpper(symbol))}
	series, err := c.Fetcher.Fetch(ctx, symbol, QuoteLookback)
	if err != nil {
		return q, err
	}
	bar, ok := series.Latest()
	if !ok {
		return q, fetchErr(c.Fetcher.Name(), symbol, ErrEmptyResponse)
	}
	q.Date = bar.Date
	q.Price = null.FloatFrom(bar.Close)
	if bar.Open != 0 {
		q.ChangePct = null.FloatFrom((bar.Close - bar.Open) / bar.Open * 100)
	}
	return q, nil
}

// Overview fetches every symbol the request needs once and assembles the
// snapshot. Failed index quotes are kept with Error set; failed ticker and
// sector symbols are left out. A cancelled ctx returns what was gathered.
func (c *Collector) Overview(ctx context.Context, req OverviewRequest) (*Overview, error) {
	sample := req.SectorSample
	if sample <= 0 {
		sample = DefaultSectorSample
	}

	sectorNames := make([]string, 0, len(req.Sectors))
	for name := range req.Sectors {
		sectorNames = append(sectorNames, name)
	}
	sort.Strings(sectorNames)

	var symbols []string
	for _, idx := range req.Indices {
		symbols = append(symbols, idx.Symbol)
	}
	for _, name := range sectorNames {
		list := req.Sectors[name]
		if len(list) > sample {
			list = list[:sample]
		}
		symbols = append(symbols, list...)
	}
	symbols = append(symbols, req.Ticker...)

	quotes := c.quotes(ctx, symbols)

	ov := &Overview{GeneratedAt: time.Now()}
	for _, idx := range req.Indices {
		q := quotes[strings.ToUpper(idx.Symbol)]
		q.Name = idx.Name
		ov.Indices = append(ov.Indices, q)
	}

	for _, name := range sectorNames {
		list := req.Sectors[name]
		if len(list) > sample {
			list = list[:sample]
		}
		move := SectorMove{Sector: name}
		for _, sym := range list {
			q := quotes[strings.ToUpper(sym)]
			if q.Error != "" || !q.ChangePct.Valid {
				continue
			}
			move.AvgChangePct += q.ChangePct.Float64
			move.Samples++
		}
		if move.Samples == 0 {
			continue
		}
		move.AvgChangePct /= float64(move.Samples)
		ov.Sectors = append(ov.Sectors, move)
	}
	sort.SliceStable(ov.Sectors, func(i, j int) bool {
		return ov.Sectors[i].AvgChangePct > ov.Sectors[j].AvgChangePct
	})

	for _, sym := range req.Ticker {
		q := quotes[strings.ToUpper(sym)]
		if q.Error != "" || !q.Price.Valid {
			continue
		}
		ov.Ticker = append(ov.Ticker, q)
	}

	return ov, ctx.Err()
}

// quotes fetches each distinct symbol once with a small worker pool.
func (c *Collector) quotes(ctx context.Context, symbols []string) map[string]Quote {
	out := make(map[string]Quote, len(symbols))
	var unique []string
	for _, s := range symbols {
		key := strings.ToUpper(s)
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = Quote{Symbol: key, Name: DisplayName(key)}
		unique = append(unique, key)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		feed = make(chan string)
	)
	for w := 0; w < overviewWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range feed {
				q, err := c.Quote(ctx, sym)
				if err != nil {
					log.Printf("[WARN] overview quote %s: %v", sym, err)
					q.Error = err.Error()
				}
				mu.Lock()
				out[sym] = q
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, sym := range unique {
		select {
		case feed <- sym:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(feed)
	wg.Wait()

	// symbols never dispatched carry the cancellation
	if err := ctx.Err(); err != nil {
		for sym, q := range out {
			if !q.Price.Valid && q.Error == "" {
				q.Error = err.Error()
				out[sym] = q
			}
		}
	}
	return out
}
