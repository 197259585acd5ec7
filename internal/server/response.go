package server

import (
	"time"

	"github.com/j-veylop/doublers-tui/internal/models"
)

type runResponse struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	UniverseSize int            `json:"universe_size"`
	Status       string         `json:"status"`
	Error        string         `json:"error,omitempty"`
	OutFile      string         `json:"out_file,omitempty"`
	UploadedTo   string         `json:"uploaded_to,omitempty"`
	Counts       map[string]int `json:"counts"`
}

type pickResponse struct {
	Rank        int      `json:"rank"`
	Symbol      string   `json:"symbol"`
	ProbEst     float64  `json:"prob_est"`
	Return      float64  `json:"ret"`
	Volatility  float64  `json:"volatility"`
	AvgVolume   float64  `json:"avg_vol"`
	Score       float64  `json:"score"`
	StopLoss    *float64 `json:"stop_loss"`
	TargetPrice *float64 `json:"target_price"`
	Reason      string   `json:"reason"`
}

type resultResponse struct {
	ID           string                    `json:"id"`
	StartedAt    time.Time                 `json:"started_at"`
	FinishedAt   *time.Time                `json:"finished_at,omitempty"`
	UniverseSize int                       `json:"universe_size"`
	Horizons     []int                     `json:"horizons"`
	Counts       map[string]int            `json:"counts"`
	Picks        map[string][]pickResponse `json:"picks"`
	OutFile      string                    `json:"out_file,omitempty"`
	UploadedTo   string                    `json:"uploaded_to,omitempty"`
	Download     string                    `json:"download,omitempty"`
}

// horizonKeys converts month keys to labels such as "6m".
func horizonKeys(counts map[int]int) map[string]int {
	out := make(map[string]int, len(counts))
	for h, n := range counts {
		out[models.HorizonLabel(h)] = n
	}
	return out
}

func newRunResponse(r *models.RunRecord) runResponse {
	return runResponse{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		UniverseSize: r.UniverseSize,
		Status:       string(r.Status),
		Error:        r.Error,
		OutFile:      r.OutFile,
		UploadedTo:   r.UploadedTo,
		Counts:       horizonKeys(r.Counts),
	}
}

func newResultResponse(r *models.RunResult) resultResponse {
	out := resultResponse{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		UniverseSize: r.UniverseSize,
		Horizons:     r.Horizons,
		Counts:       horizonKeys(r.Counts),
		Picks:        make(map[string][]pickResponse, len(r.Picks)),
		OutFile:      r.OutFile,
		UploadedTo:   r.UploadedTo,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		out.FinishedAt = &finished
	}
	if r.OutFile != "" {
		out.Download = "/download/" + r.ID
	}

	for _, h := range r.Horizons {
		picks := r.Picks[h]
		list := make([]pickResponse, 0, len(picks))
		for _, p := range picks {
			list = append(list, pickResponse{
				Rank:        p.Rank,
				Symbol:      p.Symbol,
				ProbEst:     p.ProbEst,
				Return:      p.Return,
				Volatility:  p.Volatility,
				AvgVolume:   p.AvgVolume,
				Score:       p.Score,
				StopLoss:    p.StopLoss,
				TargetPrice: p.TargetPrice,
				Reason:      p.Reason,
			})
		}
		out.Picks[models.HorizonLabel(h)] = list
	}
	return out
}
