package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
)

// UpsertCandles stores a fetched series, replacing rows for dates already present.
func (db *DB) UpsertCandles(ctx context.Context, hist *models.History) error {
	if hist.Len() == 0 {
		return nil
	}

	fetchedAt := hist.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin candle upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, date, open, high, low, close, volume, source, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			source = excluded.source,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare candle upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	stamp := fetchedAt.UTC().Format(timeLayout)
	for _, c := range hist.Candles {
		_, err := stmt.ExecContext(ctx,
			hist.Symbol,
			c.Date.Format(dateLayout),
			nullFloat(c.Open),
			nullFloat(c.High),
			nullFloat(c.Low),
			nullFloat(c.Close),
			nullFloat(c.Volume),
			string(hist.Source),
			stamp,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert candle %s %s: %w", hist.Symbol, c.Date.Format(dateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candle upsert: %w", err)
	}
	return nil
}

// GetCandles returns the stored candles for symbol on or after since, ascending.
func (db *DB) GetCandles(ctx context.Context, symbol string, since time.Time) ([]models.Candle, error) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND date >= ?
		ORDER BY date ASC
	`

	rows, err := db.QueryContext(ctx, query, symbol, since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warn("failed to close candle rows", "error", err)
		}
	}()

	var candles []models.Candle
	for rows.Next() {
		var date string
		var o, h, l, c, v sql.NullFloat64
		if err := rows.Scan(&date, &o, &h, &l, &c, &v); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		d, err := time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid candle date %q: %w", date, err)
		}
		candles = append(candles, models.Candle{
			Date:   d,
			Open:   floatOrNaN(o),
			High:   floatOrNaN(h),
			Low:    floatOrNaN(l),
			Close:  floatOrNaN(c),
			Volume: floatOrNaN(v),
		})
	}

	return candles, rows.Err()
}

// CandlesFetchedAt returns when candles for symbol were last written and by
// which source. A symbol with no stored candles returns a zero time.
func (db *DB) CandlesFetchedAt(ctx context.Context, symbol string) (time.Time, models.Source, error) {
	var stamp, source string
	err := db.QueryRowContext(ctx, `
		SELECT fetched_at, source FROM candles
		WHERE symbol = ?
		ORDER BY fetched_at DESC
		LIMIT 1
	`, symbol).Scan(&stamp, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, "", nil
	}
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to query candle freshness: %w", err)
	}

	t, err := parseTime(stamp)
	if err != nil {
		return time.Time{}, "", err
	}
	return t, models.Source(source), nil
}

// PruneCandles deletes candles dated before olderThan.
func (db *DB) PruneCandles(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM candles WHERE date < ?", olderThan.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune candles: %w", err)
	}
	return result.RowsAffected()
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullFloat maps NaN and infinities to NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullFloatPtr(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return nullFloat(*v)
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
