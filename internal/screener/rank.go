package screener

import (
	"math"
	"sort"

	"github.com/j-veylop/doublers-tui/internal/analysis"
	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/models"
)

// flatRange is the score spread below which every symbol is treated as equal.
const flatRange = 1e-9

// Rank turns the scores of one horizon into its top list. Scores are min-max
// normalised into ProbEst; ties keep symbol order.
func Rank(horizon int, scores []models.Score, t config.Tuning) []models.Pick {
	if len(scores) == 0 {
		return nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}
	spread := hi - lo

	picks := make([]models.Pick, len(scores))
	for i, s := range scores {
		prob := 0.5
		if spread >= flatRange {
			prob = (s.Value - lo) / spread
		}
		picks[i] = models.Pick{
			Horizon:     horizon,
			Symbol:      s.Symbol,
			ProbEst:     prob,
			Return:      s.Return,
			Volatility:  s.Volatility,
			AvgVolume:   s.AvgVolume,
			Score:       s.Value,
			StopLoss:    analysis.StopLoss(s, t),
			TargetPrice: analysis.TargetPrice(s, t),
			Reason:      models.Reason(s.Return, s.Volatility, s.AvgVolume),
		}
	}

	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].ProbEst != picks[j].ProbEst {
			return picks[i].ProbEst > picks[j].ProbEst
		}
		return picks[i].Symbol < picks[j].Symbol
	})

	if len(picks) > t.TopN {
		picks = picks[:t.TopN]
	}
	for i := range picks {
		picks[i].Rank = i + 1
	}
	return picks
}
