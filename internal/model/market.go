package model

import (
	"errors"
	"fmt"
	"time"
)

// PriceBar represents a single daily OHLCV observation.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries holds an ordered daily series for one symbol, oldest first.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Latest returns the most recent bar. ok is false for an empty series.
func (s *PriceSeries) Latest() (bar PriceBar, ok bool) {
	if s.Len() == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close column.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volume column as floats.
func (s *PriceSeries) Volumes() []float64 {
	vols := make([]float64, s.Len())
	for i, b := range s.Bars {
		vols[i] = float64(b.Volume)
	}
	return vols
}

// Validate checks ordering and bar consistency. Providers call it before
// handing a series to the engine; the engine itself trusts its input.
func (s *PriceSeries) Validate() error {
	if s.Len() == 0 {
		return errors.New("empty series")
	}
	for i, b := range s.Bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d (%s): non-positive price", i, b.Date.Format("2006-01-02"))
		}
		if b.Low > b.High || b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
			return fmt.Errorf("bar %d (%s): prices outside low/high", i, b.Date.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): negative volume", i, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !b.Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s): dates not strictly increasing", i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}
