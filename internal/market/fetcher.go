package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
)

// CandleStore persists fetched series between runs.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, since time.Time) ([]models.Candle, error)
	CandlesFetchedAt(ctx context.Context, symbol string) (time.Time, models.Source, error)
	UpsertCandles(ctx context.Context, hist *models.History) error
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Store        CandleStore
	Dhan         *DhanClient
	Yahoo        *YahooClient
	YearsHistory int
	CacheTTL     time.Duration
	Now          func() time.Time
}

// Fetcher resolves a symbol's history from the store, Dhan or Yahoo, in that order.
type Fetcher struct {
	store    CandleStore
	dhan     *DhanClient
	yahoo    *YahooClient
	years    int
	cacheTTL time.Duration
	now      func() time.Time
	memo     *ristretto.Cache[string, *models.History]
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	if opts.Yahoo == nil {
		opts.Yahoo = NewYahooClient("", nil)
	}
	if opts.YearsHistory <= 0 {
		opts.YearsHistory = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	memo, err := ristretto.NewCache(&ristretto.Config[string, *models.History]{
		NumCounters:        10_000,
		MaxCost:            1_000,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create history cache: %w", err)
	}

	return &Fetcher{
		store:    opts.Store,
		dhan:     opts.Dhan,
		yahoo:    opts.Yahoo,
		years:    opts.YearsHistory,
		cacheTTL: opts.CacheTTL,
		now:      opts.Now,
		memo:     memo,
	}, nil
}

// History returns the daily series for symbol. Dhan is tried first when
// dhanToken is set; any Dhan failure or empty answer falls back to Yahoo.
func (f *Fetcher) History(ctx context.Context, symbol, dhanToken string) (*models.History, error) {
	if hist, ok := f.memo.Get(symbol); ok {
		return hist, nil
	}

	end := f.now()
	start := end.AddDate(0, 0, -f.years*365)

	if hist := f.fromStore(ctx, symbol, start, end); hist != nil {
		f.remember(hist)
		return hist, nil
	}

	hist, err := f.fetch(ctx, symbol, dhanToken, start, end)
	if err != nil {
		return nil, err
	}

	if f.store != nil {
		if err := f.store.UpsertCandles(ctx, hist); err != nil {
			logger.Warn("failed to store candles", "symbol", symbol, "error", err)
		}
	}

	f.remember(hist)
	return hist, nil
}

// Forget drops every memoized history so the next run refetches stale series.
func (f *Fetcher) Forget() {
	f.memo.Clear()
}

// Close releases the memo cache.
func (f *Fetcher) Close() {
	f.memo.Close()
}

func (f *Fetcher) remember(hist *models.History) {
	ttl := f.cacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	f.memo.SetWithTTL(hist.Symbol, hist, 1, ttl)
}

// fromStore returns the stored series when it is still fresh.
func (f *Fetcher) fromStore(ctx context.Context, symbol string, start, end time.Time) *models.History {
	if f.store == nil || f.cacheTTL <= 0 {
		return nil
	}

	fetchedAt, source, err := f.store.CandlesFetchedAt(ctx, symbol)
	if err != nil {
		logger.Warn("failed to read candle freshness", "symbol", symbol, "error", err)
		return nil
	}
	if fetchedAt.IsZero() || end.Sub(fetchedAt) >= f.cacheTTL {
		return nil
	}

	candles, err := f.store.GetCandles(ctx, symbol, start)
	if err != nil {
		logger.Warn("failed to read stored candles", "symbol", symbol, "error", err)
		return nil
	}
	if len(candles) == 0 {
		return nil
	}

	logger.Debug("using stored candles", "symbol", symbol, "count", len(candles), "source", source)
	return &models.History{
		Symbol:    symbol,
		Source:    source,
		FetchedAt: fetchedAt,
		Candles:   candles,
	}
}

func (f *Fetcher) fetch(ctx context.Context, symbol, dhanToken string, start, end time.Time) (*models.History, error) {
	if dhanToken != "" && f.dhan != nil {
		candles, err := f.dhan.Candles(ctx, dhanToken, symbol, start, end)
		if err == nil && len(candles) > 0 {
			return &models.History{
				Symbol:    symbol,
				Source:    models.SourceDhan,
				FetchedAt: f.now(),
				Candles:   candles,
			}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Debug("dhan fetch failed, falling back to yahoo", "symbol", symbol, "error", err)
	}

	candles, err := f.yahoo.Candles(ctx, symbol, f.years)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	return &models.History{
		Symbol:    symbol,
		Source:    models.SourceYahoo,
		FetchedAt: f.now(),
		Candles:   candles,
	}, nil
}

// IsNoData reports whether err means a provider had nothing for the symbol.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
