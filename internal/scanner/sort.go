package scanner

import (
	"fmt"
	"sort"

	"github.com/guregu/null/v6"

	"MarketScanner/internal/model"
)

// SortKey selects the ranking column.
type SortKey string

const (
	SortScore          SortKey = "score"
	SortVolumeRatio    SortKey = "volume_ratio"
	SortRSI            SortKey = "rsi"
	SortChange         SortKey = "change"
	SortDistanceSMA200 SortKey = "distance_sma200"
)

var sortKeys = map[SortKey]func(*model.ScanResult) null.Float{
	SortScore:          func(r *model.ScanResult) null.Float { return null.FloatFrom(float64(r.Score)) },
	SortVolumeRatio:    func(r *model.ScanResult) null.Float { return r.VolumeRatio },
	SortRSI:            func(r *model.ScanResult) null.Float { return r.RSI },
	SortChange:         func(r *model.ScanResult) null.Float { return null.FloatFrom(r.ChangePct) },
	SortDistanceSMA200: func(r *model.ScanResult) null.Float { return r.DistanceFromSMA200Pct },
}

// ParseSortKey validates s; the empty string means SortScore.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortScore, nil
	}
	k := SortKey(s)
	if _, ok := sortKeys[k]; !ok {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}

// Rank orders results descending by key. Undefined keys sort last and ties
// fall back to symbol ascending, so the order is total.
func Rank(results []model.ScanResult, key SortKey) {
	keyOf, ok := sortKeys[key]
	if !ok {
		keyOf = sortKeys[SortScore]
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := keyOf(&results[i]), keyOf(&results[j])
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid && a.Float64 != b.Float64 {
			return a.Float64 > b.Float64
		}
		return results[i].Symbol < results[j].Symbol
	})
}
