// Package models defines data structures and domain types.
package models

import (
	"math"
	"sort"
	"time"
)

// Source identifies where a price series came from.
type Source string

const (
	// SourceDhan is the primary brokerage candle API.
	SourceDhan Source = "dhan"
	// SourceYahoo is the public chart API used as fallback.
	SourceYahoo Source = "yahoo"
)

// Candle is one daily OHLCV bar. Missing values are NaN.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// History is a daily series for one symbol, ascending by date.
type History struct {
	Symbol    string
	Source    Source
	FetchedAt time.Time
	Candles   []Candle
}

// Len returns the number of candles.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Candles)
}

// Last returns the most recent candle.
func (h *History) Last() (Candle, bool) {
	if h.Len() == 0 {
		return Candle{}, false
	}
	return h.Candles[len(h.Candles)-1], true
}

// Closes returns the close prices, skipping NaN values.
func (h *History) Closes() []float64 {
	out := make([]float64, 0, h.Len())
	for _, c := range h.Candles {
		if !math.IsNaN(c.Close) {
			out = append(out, c.Close)
		}
	}
	return out
}

// NormalizeCandles sorts by date and collapses candles sharing a calendar day.
// The later entry in input order wins.
func NormalizeCandles(candles []Candle) []Candle {
	if len(candles) == 0 {
		return candles
	}

	byDay := make(map[string]int, len(candles))
	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		key := c.Date.Format("2006-01-02")
		if idx, ok := byDay[key]; ok {
			out[idx] = c
			continue
		}
		byDay[key] = len(out)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
