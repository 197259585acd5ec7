package analysis

import (
	"math"
	"sort"

	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/models"
)

// daysPerMonth converts a horizon in months to a calendar lookback.
const daysPerMonth = 30

// ScoreHorizon scores the trailing window of months for one symbol. It
// reports false when the window is too short, the return is undefined or the
// average volume is below the liquidity floor.
func ScoreHorizon(symbol string, rows []Row, months int, t config.Tuning) (models.Score, bool) {
	if len(rows) == 0 {
		return models.Score{}, false
	}

	last := rows[len(rows)-1]
	cutoff := last.Date.AddDate(0, 0, -months*daysPerMonth)
	first := sort.Search(len(rows), func(i int) bool {
		return !rows[i].Date.Before(cutoff)
	})
	recent := rows[first:]
	if len(recent) < t.MinRows {
		return models.Score{}, false
	}

	ret := recent[len(recent)-1].Close/recent[0].Close - 1
	if math.IsNaN(ret) || math.IsInf(ret, 0) {
		return models.Score{}, false
	}

	returns := make([]float64, 0, len(recent))
	volumeSum, volumeN := 0.0, 0
	for _, r := range recent {
		if !math.IsNaN(r.Ret1D) {
			returns = append(returns, r.Ret1D)
		}
		if !math.IsNaN(r.Volume) {
			volumeSum += r.Volume
			volumeN++
		}
	}

	vol := sampleStd(returns) * math.Sqrt(tradingDays)
	if math.IsNaN(vol) {
		vol = 0
	}

	if volumeN == 0 {
		return models.Score{}, false
	}
	avgVolume := volumeSum / float64(volumeN)
	if avgVolume < t.MinAvgVolume {
		return models.Score{}, false
	}

	return models.Score{
		Symbol:     symbol,
		Return:     ret,
		Volatility: vol,
		AvgVolume:  avgVolume,
		Value:      ret - vol*t.VolPenalty + math.Log1p(avgVolume)*t.LogVolWeight,
		LastClose:  last.Close,
		LastATR:    last.ATR,
	}, true
}

// StopLoss is the last close less a multiple of the last ATR.
func StopLoss(s models.Score, t config.Tuning) *float64 {
	if math.IsNaN(s.LastATR) {
		return nil
	}
	return models.FloatPtr(s.LastClose - t.StopATRMultiple*s.LastATR)
}

// TargetPrice is a multiple of the last close.
func TargetPrice(s models.Score, t config.Tuning) *float64 {
	return models.FloatPtr(s.LastClose * t.TargetMultiple)
}
