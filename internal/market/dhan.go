package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
)

const (
	// DefaultDhanURL is the Dhan API host.
	DefaultDhanURL = "https://api.dhan.co"

	dhanCandlesPath = "/v1/marketdata/candles"
	dhanAttempts    = 2
)

// DhanClient fetches daily candles from the Dhan market data API.
type DhanClient struct {
	baseURL    string
	http       *http.Client
	retryDelay time.Duration
}

// NewDhanClient creates a Dhan client. An empty baseURL uses DefaultDhanURL.
func NewDhanClient(baseURL string, client *http.Client) *DhanClient {
	if baseURL == "" {
		baseURL = DefaultDhanURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &DhanClient{
		baseURL:    baseURL,
		http:       client,
		retryDelay: time.Second,
	}
}

// Candles returns daily candles for symbol between start and end inclusive.
func (c *DhanClient) Candles(ctx context.Context, token, symbol string, start, end time.Time) ([]models.Candle, error) {
	if token == "" {
		return nil, fmt.Errorf("dhan: %w: token is empty", ErrUnauthorized)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("start", start.Format("2006-01-02"))
	params.Set("end", end.Format("2006-01-02"))
	params.Set("interval", "1d")
	endpoint := c.baseURL + dhanCandlesPath + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < dhanAttempts; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying dhan request", "symbol", symbol, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		body, err := c.get(ctx, endpoint, token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isUnauthorized(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		candles, err := parseDhanPayload(body)
		if err != nil {
			lastErr = err
			continue
		}
		if len(candles) == 0 {
			return nil, fmt.Errorf("dhan %s: %w", symbol, ErrNoData)
		}
		return candles, nil
	}

	return nil, fmt.Errorf("dhan %s: %w", symbol, lastErr)
}

func (c *DhanClient) get(ctx context.Context, endpoint, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create candle request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candle request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read candle response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("candle request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}
