// Package screener fetches the universe, scores every horizon and exports the top picks.
package screener

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/j-veylop/doublers-tui/internal/analysis"
	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/export"
	"github.com/j-veylop/doublers-tui/internal/idgen"
	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/secrets"
)

// ErrNoSymbols is returned when a run is started with an empty universe.
var ErrNoSymbols = errors.New("no symbols to analyze")

// HistorySource returns the daily series of a symbol.
type HistorySource interface {
	History(ctx context.Context, symbol, dhanToken string) (*models.History, error)
}

// SecretSource resolves named credentials.
type SecretSource interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// RunStore persists run metadata and picks.
type RunStore interface {
	InsertRun(ctx context.Context, run *models.RunRecord) error
	FinishRun(ctx context.Context, runID string, res *models.RunResult, runErr error) error
}

// Uploader copies a finished workbook somewhere else and returns its location.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Progress is reported after each symbol finishes.
type Progress struct {
	Symbol string
	Done   int
	Total  int
}

// Options configures a single run.
type Options struct {
	Tuning      config.Tuning
	OutputDir   string
	Concurrency int
	UseDhan     bool
	Now         func() time.Time
	OnProgress  func(Progress)
}

// Screener runs the fetch, score and export pipeline.
type Screener struct {
	history  HistorySource
	secrets  SecretSource
	runs     RunStore
	uploader Uploader
}

// New creates a Screener. secrets, runs and uploader may be nil.
func New(history HistorySource, creds SecretSource, runs RunStore, uploader Uploader) *Screener {
	return &Screener{
		history:  history,
		secrets:  creds,
		runs:     runs,
		uploader: uploader,
	}
}

// symbolResult holds one symbol's scores keyed by horizon.
type symbolResult struct {
	source models.Source
	scores map[int]models.Score
	ok     bool
}

// Run screens symbols and writes the workbook. Per-symbol failures are
// logged and counted as skipped; a cancelled context returns ctx.Err().
func (s *Screener) Run(ctx context.Context, symbols []string, opts Options) (*models.RunResult, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if err := opts.Tuning.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	id, err := idgen.NewRunID()
	if err != nil {
		return nil, err
	}

	res := &models.RunResult{
		ID:           id,
		StartedAt:    opts.Now(),
		UniverseSize: len(symbols),
		Horizons:     append([]int(nil), opts.Tuning.HorizonsMonths...),
		Counts:       make(map[int]int, len(opts.Tuning.HorizonsMonths)),
		Picks:        make(map[int][]models.Pick, len(opts.Tuning.HorizonsMonths)),
		Sources:      make(map[models.Source]int),
	}

	if s.runs != nil {
		err := s.runs.InsertRun(ctx, &models.RunRecord{
			ID:           id,
			StartedAt:    res.StartedAt,
			UniverseSize: len(symbols),
			Status:       models.RunStatusRunning,
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info("run started", "id", id, "symbols", len(symbols), "horizons", res.Horizons)

	if err := s.execute(ctx, symbols, opts, res); err != nil {
		s.finish(ctx, res, err)
		logger.Error("run failed", "id", id, "error", err)
		return nil, err
	}

	s.finish(ctx, res, nil)
	logger.Info("run completed",
		"id", id,
		"out", res.OutFile,
		"skipped", res.Skipped,
		"duration", res.Duration().Round(time.Millisecond))
	return res, nil
}

func (s *Screener) execute(ctx context.Context, symbols []string, opts Options, res *models.RunResult) error {
	token, err := s.dhanToken(ctx, opts.UseDhan, res)
	if err != nil {
		return err
	}

	results := s.scoreAll(ctx, symbols, token, opts)
	if err := ctx.Err(); err != nil {
		return err
	}

	perHorizon := make(map[int][]models.Score, len(res.Horizons))
	for i, r := range results {
		if !r.ok {
			res.Skipped++
			continue
		}
		res.Sources[r.source]++
		for _, h := range res.Horizons {
			if score, ok := r.scores[h]; ok {
				perHorizon[h] = append(perHorizon[h], score)
			}
		}
		logger.Debug("symbol scored", "symbol", symbols[i], "horizons", len(r.scores))
	}

	for _, h := range res.Horizons {
		res.Counts[h] = len(perHorizon[h])
		res.Picks[h] = Rank(h, perHorizon[h], opts.Tuning)
	}

	path := filepath.Join(opts.OutputDir, export.FileName(res.StartedAt))
	if err := export.WriteWorkbook(path, res.Horizons, res.Picks); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	res.OutFile = path

	if s.uploader != nil {
		uri, err := s.uploader.Upload(ctx, path)
		if err != nil {
			logger.Warn("workbook upload failed", "path", path, "error", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("upload failed: %v", err))
		} else {
			res.UploadedTo = uri
		}
	}

	res.FinishedAt = opts.Now()
	return nil
}

// dhanToken resolves the Dhan credential. An invalid service account is
// fatal; any other failure downgrades the run to Yahoo only.
func (s *Screener) dhanToken(ctx context.Context, useDhan bool, res *models.RunResult) (string, error) {
	if !useDhan || s.secrets == nil {
		return "", nil
	}

	token, err := s.secrets.Lookup(ctx, secrets.DhanToken)
	switch {
	case err == nil && token == "":
		res.Warnings = append(res.Warnings, "DHAN_TOKEN not set, using Yahoo only")
	case err == nil:
		return token, nil
	case errors.Is(err, secrets.ErrServiceAccountInvalid):
		return "", err
	case errors.Is(err, secrets.ErrServiceAccountMissing):
		res.Warnings = append(res.Warnings, "service account not found, using Yahoo only")
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("could not load DHAN_TOKEN (%v), using Yahoo only", err))
	}

	logger.Warn("dhan disabled for this run", "reason", res.Warnings[len(res.Warnings)-1])
	return "", nil
}

// scoreAll fetches and scores every symbol with a bounded pool.
func (s *Screener) scoreAll(ctx context.Context, symbols []string, token string, opts Options) []symbolResult {
	results := make([]symbolResult, len(symbols))
	sem := make(chan struct{}, opts.Concurrency)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	report := func(symbol string) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Symbol: symbol, Done: done, Total: len(symbols)})
		}
	}

	for i, symbol := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return results
		}

		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = s.scoreSymbol(ctx, symbol, token, opts.Tuning)
			report(symbol)
		}(i, symbol)
	}

	wg.Wait()
	return results
}

func (s *Screener) scoreSymbol(ctx context.Context, symbol, token string, t config.Tuning) symbolResult {
	hist, err := s.history.History(ctx, symbol, token)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("skipping symbol", "symbol", symbol, "error", err)
		}
		return symbolResult{}
	}
	if hist.Len() == 0 {
		logger.Warn("skipping symbol", "symbol", symbol, "error", "empty history")
		return symbolResult{}
	}

	rows := analysis.Compute(hist.Candles, t.ATRWindow, t.VolWindow)
	scores := make(map[int]models.Score, len(t.HorizonsMonths))
	for _, h := range t.HorizonsMonths {
		if score, ok := analysis.ScoreHorizon(symbol, rows, h, t); ok {
			scores[h] = score
		}
	}

	return symbolResult{source: hist.Source, scores: scores, ok: true}
}

func (s *Screener) finish(ctx context.Context, res *models.RunResult, runErr error) {
	if s.runs == nil {
		return
	}
	if err := s.runs.FinishRun(context.WithoutCancel(ctx), res.ID, res, runErr); err != nil {
		logger.Error("failed to record run", "id", res.ID, "error", err)
	}
}
