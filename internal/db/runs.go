package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
)

// InsertRun records the start of a run.
func (db *DB) InsertRun(ctx context.Context, run *models.RunRecord) error {
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	status := run.Status
	if status == "" {
		status = models.RunStatusRunning
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, universe_size, status)
		VALUES (?, ?, ?, ?)
	`, run.ID, started.UTC().Format(timeLayout), run.UniverseSize, string(status))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun marks a run completed and stores its counts and picks. When runErr
// is non-nil the run is marked failed and res may be nil.
func (db *DB) FinishRun(ctx context.Context, runID string, res *models.RunResult, runErr error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin run update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	finished := time.Now()
	status := models.RunStatusCompleted
	var errMsg, outFile, uploaded string
	if res != nil {
		if !res.FinishedAt.IsZero() {
			finished = res.FinishedAt
		}
		outFile = res.OutFile
		uploaded = res.UploadedTo
	}
	if runErr != nil {
		status = models.RunStatusFailed
		errMsg = runErr.Error()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, out_file = ?, uploaded_to = ?, status = ?, error = ?
		WHERE id = ?
	`, finished.UTC().Format(timeLayout), nullString(outFile), nullString(uploaded),
		string(status), nullString(errMsg), runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	if res != nil && runErr == nil {
		if err := insertCounts(ctx, tx, runID, res.Counts); err != nil {
			return err
		}
		if err := insertPicks(ctx, tx, runID, res.Picks); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run update: %w", err)
	}
	return nil
}

func insertCounts(ctx context.Context, tx *sql.Tx, runID string, counts map[int]int) error {
	for horizon, scanned := range counts {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO run_counts (run_id, horizon, scanned) VALUES (?, ?, ?)",
			runID, horizon, scanned)
		if err != nil {
			return fmt.Errorf("failed to insert run count: %w", err)
		}
	}
	return nil
}

func insertPicks(ctx context.Context, tx *sql.Tx, runID string, picks map[int][]models.Pick) error {
	query := `
		INSERT INTO picks (
			run_id, horizon, rank, symbol, prob_est, ret, volatility, avg_vol,
			score, stop_loss, target_price, reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for horizon, list := range picks {
		for _, p := range list {
			_, err := tx.ExecContext(ctx, query,
				runID, horizon, p.Rank, p.Symbol, p.ProbEst, p.Return, p.Volatility,
				p.AvgVolume, p.Score, nullFloatPtr(p.StopLoss), nullFloatPtr(p.TargetPrice),
				nullString(p.Reason),
			)
			if err != nil {
				return fmt.Errorf("failed to insert pick %s: %w", p.Symbol, err)
			}
		}
	}
	return nil
}

const runColumns = `id, started_at, finished_at, universe_size, out_file, uploaded_to, status, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var run models.RunRecord
	var started string
	var finished, outFile, uploaded, errMsg sql.NullString
	var status string

	if err := row.Scan(&run.ID, &started, &finished, &run.UniverseSize,
		&outFile, &uploaded, &status, &errMsg); err != nil {
		return nil, err
	}

	t, err := parseTime(started)
	if err != nil {
		return nil, err
	}
	run.StartedAt = t
	if finished.Valid {
		f, err := parseTime(finished.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &f
	}
	run.OutFile = outFile.String
	run.UploadedTo = uploaded.String
	run.Status = models.RunStatus(status)
	run.Error = errMsg.String
	return &run, nil
}

// GetRecentRuns returns the most recent runs, newest first.
func (db *DB) GetRecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}

	var runs []models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		logger.Warn("failed to close run rows", "error", err)
	}

	// Counts are loaded after the cursor is released.
	for i := range runs {
		counts, err := db.getRunCounts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Counts = counts
	}

	return runs, nil
}

// GetRun returns a run by ID, or ErrNotFound.
func (db *DB) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	run, err := scanRun(db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	counts, err := db.getRunCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Counts = counts
	return run, nil
}

// GetLatestRun returns the most recent completed run, or ErrNotFound.
func (db *DB) GetLatestRun(ctx context.Context) (*models.RunRecord, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		SELECT id FROM runs
		WHERE status = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, string(models.RunStatusCompleted)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return db.GetRun(ctx, id)
}

// GetRunPicks returns the picks of a run keyed by horizon, each list in rank order.
func (db *DB) GetRunPicks(ctx context.Context, runID string) (map[int][]models.Pick, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT horizon, rank, symbol, prob_est, ret, volatility, avg_vol, score,
			   stop_loss, target_price, reason
		FROM picks
		WHERE run_id = ?
		ORDER BY horizon ASC, rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warn("failed to close pick rows", "error", err)
		}
	}()

	picks := make(map[int][]models.Pick)
	for rows.Next() {
		var p models.Pick
		var stop, target sql.NullFloat64
		var reason sql.NullString
		if err := rows.Scan(&p.Horizon, &p.Rank, &p.Symbol, &p.ProbEst, &p.Return,
			&p.Volatility, &p.AvgVolume, &p.Score, &stop, &target, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		p.StopLoss = floatPtr(stop)
		p.TargetPrice = floatPtr(target)
		p.Reason = reason.String
		picks[p.Horizon] = append(picks[p.Horizon], p)
	}

	return picks, rows.Err()
}

func (db *DB) getRunCounts(ctx context.Context, runID string) (map[int]int, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT horizon, scanned FROM run_counts WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int]int)
	for rows.Next() {
		var horizon, scanned int
		if err := rows.Scan(&horizon, &scanned); err != nil {
			return nil, fmt.Errorf("failed to scan run count: %w", err)
		}
		counts[horizon] = scanned
	}
	return counts, rows.Err()
}
