package scanner

import (
	"github.com/guregu/null/v6"

	"MarketScanner/internal/model"
)

// VolumeSpikeRatio is the volume / 20-day average ratio the VolumeSpike
// filter requires.
const VolumeSpikeRatio = 1.5

// Filters are the screener thresholds applied after evaluation. Zero values
// and invalid null.Floats are inactive.
type Filters struct {
	RSIMin      null.Float `yaml:"rsi_min" json:"rsi_min"`
	RSIMax      null.Float `yaml:"rsi_max" json:"rsi_max"`
	MinVolume   int64      `yaml:"min_volume" json:"min_volume"`
	MinPrice    null.Float `yaml:"min_price" json:"min_price"`
	MaxPrice    null.Float `yaml:"max_price" json:"max_price"`
	AboveSMA200 bool       `yaml:"above_sma200" json:"above_sma200"`
	VolumeSpike bool       `yaml:"volume_spike" json:"volume_spike"`
	MinScore    int        `yaml:"min_score" json:"min_score"`
}

// Match reports whether r passes every active filter. An undefined indicator
// fails any filter that needs it.
func (f Filters) Match(r *model.ScanResult) bool {
	if f.RSIMin.Valid && !(r.RSI.Valid && r.RSI.Float64 >= f.RSIMin.Float64) {
		return false
	}
	if f.RSIMax.Valid && !(r.RSI.Valid && r.RSI.Float64 <= f.RSIMax.Float64) {
		return false
	}
	if r.Volume < f.MinVolume {
		return false
	}
	if f.MinPrice.Valid && r.Price < f.MinPrice.Float64 {
		return false
	}
	if f.MaxPrice.Valid && r.Price > f.MaxPrice.Float64 {
		return false
	}
	if f.AboveSMA200 && !(r.SMA200.Valid && r.Price > r.SMA200.Float64) {
		return false
	}
	if f.VolumeSpike && !(r.VolumeRatio.Valid && r.VolumeRatio.Float64 > VolumeSpikeRatio) {
		return false
	}
	return r.Score >= f.MinScore
}
