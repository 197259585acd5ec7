package models

import (
	"slices"
	"time"
)

// RunStatus is the lifecycle state of a screening run.
type RunStatus string

const (
	// RunStatusRunning marks a run still in progress.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted marks a run whose workbook was written.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed marks a run that aborted.
	RunStatusFailed RunStatus = "failed"
)

// RunResult is the full output of one screening run.
type RunResult struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	UniverseSize int
	Skipped      int
	Horizons     []int
	Counts       map[int]int
	Picks        map[int][]Pick
	Sources      map[Source]int
	OutFile      string
	UploadedTo   string
	Warnings     []string
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TopPick returns the first pick of the given horizon.
func (r *RunResult) TopPick(horizon int) (Pick, bool) {
	picks := r.Picks[horizon]
	if len(picks) == 0 {
		return Pick{}, false
	}
	return picks[0], true
}

// ShortestHorizon returns the smallest configured horizon, or 0 when none.
func (r *RunResult) ShortestHorizon() int {
	shortest := 0
	for _, h := range r.Horizons {
		if shortest == 0 || h < shortest {
			shortest = h
		}
	}
	return shortest
}

// RunRecord is a persisted run row.
type RunRecord struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   *time.Time
	UniverseSize int
	OutFile      string
	UploadedTo   string
	Status       RunStatus
	Error        string
	Counts       map[int]int
}

// Horizons returns the horizons recorded for the run, ascending.
func (r *RunRecord) Horizons() []int {
	horizons := make([]int, 0, len(r.Counts))
	for h := range r.Counts {
		horizons = append(horizons, h)
	}
	slices.Sort(horizons)
	return horizons
}

// Result rebuilds a RunResult from the stored row and its picks.
func (r *RunRecord) Result(picks map[int][]Pick) *RunResult {
	res := &RunResult{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		UniverseSize: r.UniverseSize,
		Horizons:     r.Horizons(),
		Counts:       r.Counts,
		Picks:        picks,
		OutFile:      r.OutFile,
		UploadedTo:   r.UploadedTo,
	}
	if r.FinishedAt != nil {
		res.FinishedAt = *r.FinishedAt
	}
	if res.Picks == nil {
		res.Picks = make(map[int][]Pick)
	}
	return res
}
