package screener

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/export"
	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/secrets"
)

// trend builds days of candles growing by step per day from 100.
func trend(symbol string, days int, step, volume float64) *models.History {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, days)
	for i := range candles {
		c := 100 + step*float64(i)
		candles[i] = models.Candle{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	return &models.History{Symbol: symbol, Source: models.SourceYahoo, Candles: candles}
}

type fakeHistory struct {
	mu     sync.Mutex
	series map[string]*models.History
	tokens []string
	block  chan struct{}
}

func (f *fakeHistory) History(ctx context.Context, symbol, token string) (*models.History, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if h, ok := f.series[symbol]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("no data for %s", symbol)
}

type fakeSecrets struct {
	value string
	err   error
}

func (f fakeSecrets) Lookup(context.Context, string) (string, error) {
	return f.value, f.err
}

type fakeRuns struct {
	inserted []string
	finished []error
	results  []*models.RunResult
}

func (f *fakeRuns) InsertRun(_ context.Context, run *models.RunRecord) error {
	f.inserted = append(f.inserted, run.ID)
	return nil
}

func (f *fakeRuns) FinishRun(_ context.Context, _ string, res *models.RunResult, runErr error) error {
	f.finished = append(f.finished, runErr)
	f.results = append(f.results, res)
	return nil
}

type fakeUploader struct {
	err  error
	path string
}

func (f *fakeUploader) Upload(_ context.Context, path string) (string, error) {
	f.path = path
	if f.err != nil {
		return "", f.err
	}
	return "s3://bucket/" + path, nil
}

func testOptions(t *testing.T) Options {
	t.Helper()
	tuning := config.DefaultTuning()
	tuning.HorizonsMonths = []int{6, 12}
	tuning.TopN = 2
	return Options{
		Tuning:      tuning,
		OutputDir:   t.TempDir(),
		Concurrency: 2,
		UseDhan:     true,
		Now:         func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func universe() *fakeHistory {
	return &fakeHistory{series: map[string]*models.History{
		"FAST":   trend("FAST", 300, 2, 50000),
		"SLOW":   trend("SLOW", 300, 0.5, 50000),
		"MID":    trend("MID", 300, 1, 50000),
		"SHORT":  trend("SHORT", 5, 1, 50000),
		"ILLIQD": trend("ILLIQD", 300, 3, 10),
	}}
}

func TestRank(t *testing.T) {
	tuning := config.DefaultTuning()
	tuning.TopN = 2

	scores := []models.Score{
		{Symbol: "B", Value: 0.2, Return: 0.1, LastClose: 10, LastATR: 1},
		{Symbol: "A", Value: 0.6, Return: 0.3, LastClose: 20, LastATR: 2},
		{Symbol: "C", Value: 0.4, Return: 0.2, LastClose: 30, LastATR: 3},
	}

	picks := Rank(6, scores, tuning)
	require.Len(t, picks, 2)
	assert.Equal(t, "A", picks[0].Symbol)
	assert.Equal(t, 1, picks[0].Rank)
	assert.InDelta(t, 1.0, picks[0].ProbEst, 1e-12)
	assert.Equal(t, "C", picks[1].Symbol)
	assert.InDelta(t, 0.5, picks[1].ProbEst, 1e-12)
	assert.Equal(t, 2, picks[1].Rank)
	assert.Equal(t, 6, picks[1].Horizon)

	require.NotNil(t, picks[0].StopLoss)
	assert.InDelta(t, 17, *picks[0].StopLoss, 1e-12)
	require.NotNil(t, picks[0].TargetPrice)
	assert.InDelta(t, 60, *picks[0].TargetPrice, 1e-12)
	assert.Equal(t, "ret=30.00%, vol=0.00, avgVol=0", picks[0].Reason)
}

func TestRank_FlatScoresTieBreakBySymbol(t *testing.T) {
	tuning := config.DefaultTuning()
	scores := []models.Score{
		{Symbol: "ZED", Value: 1},
		{Symbol: "ALPHA", Value: 1},
		{Symbol: "MID", Value: 1 + 1e-12},
	}

	picks := Rank(12, scores, tuning)
	require.Len(t, picks, 3)
	for _, p := range picks {
		assert.Equal(t, 0.5, p.ProbEst)
	}
	assert.Equal(t, []string{"ALPHA", "MID", "ZED"}, []string{picks[0].Symbol, picks[1].Symbol, picks[2].Symbol})
}

func TestRank_Empty(t *testing.T) {
	assert.Nil(t, Rank(6, nil, config.DefaultTuning()))
}

func TestRun_EmptyUniverse(t *testing.T) {
	s := New(universe(), nil, nil, nil)
	_, err := s.Run(context.Background(), nil, testOptions(t))
	assert.ErrorIs(t, err, ErrNoSymbols)
	assert.EqualError(t, err, "no symbols to analyze")
}

func TestRun_InvalidTuning(t *testing.T) {
	opts := testOptions(t)
	opts.Tuning.TopN = 0
	_, err := New(universe(), nil, nil, nil).Run(context.Background(), []string{"FAST"}, opts)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	hist := universe()
	runs := &fakeRuns{}
	uploader := &fakeUploader{}
	opts := testOptions(t)

	var progress []Progress
	opts.OnProgress = func(p Progress) { progress = append(progress, p) }

	s := New(hist, fakeSecrets{value: "tok"}, runs, uploader)
	symbols := []string{"FAST", "SLOW", "MID", "SHORT", "ILLIQD", "MISSING"}
	res, err := s.Run(context.Background(), symbols, opts)
	require.NoError(t, err)

	assert.Regexp(t, `^run-`, res.ID)
	assert.Equal(t, 6, res.UniverseSize)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 5, res.Sources[models.SourceYahoo])
	assert.Equal(t, []int{6, 12}, res.Horizons)

	// SHORT has too few rows and ILLIQD fails the volume floor.
	assert.Equal(t, 3, res.Counts[6])
	assert.Equal(t, 3, res.Counts[12])

	require.Len(t, res.Picks[6], 2)
	assert.Equal(t, "FAST", res.Picks[6][0].Symbol)
	assert.Equal(t, 1.0, res.Picks[6][0].ProbEst)

	assert.Len(t, progress, len(symbols))
	assert.Equal(t, len(symbols), progress[len(progress)-1].Done)
	for _, p := range progress {
		assert.Equal(t, len(symbols), p.Total)
	}

	for _, tok := range hist.tokens {
		assert.Equal(t, "tok", tok)
	}

	assert.Equal(t, export.FileName(time.Unix(1700000000, 0)), filepath.Base(res.OutFile))
	_, statErr := os.Stat(res.OutFile)
	require.NoError(t, statErr)
	assert.Equal(t, res.OutFile, uploader.path)
	assert.Equal(t, "s3://bucket/"+res.OutFile, res.UploadedTo)

	assert.Equal(t, []string{res.ID}, runs.inserted)
	require.Len(t, runs.finished, 1)
	assert.NoError(t, runs.finished[0])

	wb, err := export.ReadWorkbook(res.OutFile)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 12}, wb.Horizons)
	assert.Equal(t, "FAST", wb.Picks[6][0].Symbol)
}

func TestRun_UploadFailureIsWarning(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("denied")}
	res, err := New(universe(), nil, nil, uploader).Run(context.Background(), []string{"FAST"}, testOptions(t))
	require.NoError(t, err)
	assert.Empty(t, res.UploadedTo)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "denied")
}

func TestRun_DhanTokenResolution(t *testing.T) {
	tests := []struct {
		name      string
		secrets   SecretSource
		useDhan   bool
		wantErr   bool
		wantWarn  string
		wantToken string
	}{
		{name: "Token", secrets: fakeSecrets{value: "abc"}, useDhan: true, wantToken: "abc"},
		{name: "Disabled", secrets: fakeSecrets{value: "abc"}, useDhan: false},
		{name: "NoStore", secrets: nil, useDhan: true},
		{name: "Unset", secrets: fakeSecrets{}, useDhan: true, wantWarn: "DHAN_TOKEN not set"},
		{
			name:     "MissingAccount",
			secrets:  fakeSecrets{err: fmt.Errorf("x: %w", secrets.ErrServiceAccountMissing)},
			useDhan:  true,
			wantWarn: "service account not found",
		},
		{
			name:     "Network",
			secrets:  fakeSecrets{err: errors.New("connection refused")},
			useDhan:  true,
			wantWarn: "connection refused",
		},
		{
			name:    "InvalidAccount",
			secrets: fakeSecrets{err: fmt.Errorf("x: %w", secrets.ErrServiceAccountInvalid)},
			useDhan: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := universe()
			runs := &fakeRuns{}
			opts := testOptions(t)
			opts.UseDhan = tt.useDhan

			res, err := New(hist, tt.secrets, runs, nil).Run(context.Background(), []string{"FAST"}, opts)
			if tt.wantErr {
				require.ErrorIs(t, err, secrets.ErrServiceAccountInvalid)
				require.Len(t, runs.finished, 1)
				assert.Error(t, runs.finished[0])
				return
			}
			require.NoError(t, err)
			require.Len(t, hist.tokens, 1)
			assert.Equal(t, tt.wantToken, hist.tokens[0])
			if tt.wantWarn == "" {
				assert.Empty(t, res.Warnings)
			} else {
				require.Len(t, res.Warnings, 1)
				assert.Contains(t, res.Warnings[0], tt.wantWarn)
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	hist := universe()
	hist.block = make(chan struct{})
	runs := &fakeRuns{}

	ctx, cancel := context.WithCancel(context.Background())
	opts := testOptions(t)
	opts.OnProgress = func(Progress) { cancel() }

	done := make(chan error, 1)
	go func() {
		_, err := New(hist, nil, runs, nil).Run(ctx, []string{"FAST", "SLOW", "MID"}, opts)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	require.Len(t, runs.finished, 1)
	assert.ErrorIs(t, runs.finished[0], context.Canceled)
	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no workbook on cancel")
}
