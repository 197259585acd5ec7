// Package analysis computes price indicators and per-horizon scores.
package analysis

import (
	"math"

	"github.com/j-veylop/doublers-tui/internal/models"
)

// tradingDays annualises daily volatility.
const tradingDays = 252

// Row is a candle with its derived indicators. Undefined values are NaN.
type Row struct {
	models.Candle
	Ret1D     float64
	TR        float64
	ATR       float64
	VolAnnual float64
}

// Compute derives daily return, true range, ATR and rolling annualised
// volatility for an ascending candle series.
func Compute(candles []models.Candle, atrWindow, volWindow int) []Row {
	rows := make([]Row, len(candles))
	prevClose := math.NaN()

	for i, c := range candles {
		r := Row{Candle: c}

		r.Ret1D = math.NaN()
		if !math.IsNaN(c.Close) && !math.IsNaN(prevClose) && prevClose != 0 {
			r.Ret1D = c.Close/prevClose - 1
		}
		if !math.IsNaN(c.Close) {
			prevClose = c.Close
		}

		r.TR = math.Abs(c.High - c.Low)
		rows[i] = r
	}

	for i := range rows {
		rows[i].ATR = windowMean(rows, i, atrWindow, func(r Row) float64 { return r.TR })
		rows[i].VolAnnual = windowStd(rows, i, volWindow, func(r Row) float64 { return r.Ret1D }) * math.Sqrt(tradingDays)
	}

	return rows
}

// windowMean averages the non-NaN values in the window ending at i.
func windowMean(rows []Row, i, window int, get func(Row) float64) float64 {
	sum, n := 0.0, 0
	for j := max(0, i-window+1); j <= i; j++ {
		if v := get(rows[j]); !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// windowStd is the sample standard deviation of the non-NaN values in the
// window ending at i, NaN with fewer than two values.
func windowStd(rows []Row, i, window int, get func(Row) float64) float64 {
	values := make([]float64, 0, window)
	for j := max(0, i-window+1); j <= i; j++ {
		if v := get(rows[j]); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	return sampleStd(values)
}

func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
