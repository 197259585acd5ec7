package models

import (
	"fmt"
	"math"
)

// Score is the horizon result for a single symbol before ranking.
type Score struct {
	Symbol     string
	Return     float64
	Volatility float64
	AvgVolume  float64
	Value      float64
	LastClose  float64
	LastATR    float64
}

// Pick is a ranked entry in a horizon's top list.
type Pick struct {
	Horizon     int
	Rank        int
	Symbol      string
	ProbEst     float64
	Return      float64
	Volatility  float64
	AvgVolume   float64
	Score       float64
	StopLoss    *float64
	TargetPrice *float64
	Reason      string
}

// Reason formats the short explanation attached to each pick.
func Reason(ret, vol, avgVolume float64) string {
	return fmt.Sprintf("ret=%.2f%%, vol=%.2f, avgVol=%d", ret*100, vol, int64(avgVolume))
}

// FloatPtr returns a pointer to v, or nil when v is NaN or infinite.
func FloatPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// HorizonLabel returns the sheet and tab label for a horizon, e.g. "6m".
func HorizonLabel(months int) string {
	return fmt.Sprintf("%dm", months)
}
