package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
)

// DefaultYahooURL is the Yahoo Finance chart API host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooClient fetches daily candles from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL string
	http    *http.Client
}

// NewYahooClient creates a Yahoo client. An empty baseURL uses DefaultYahooURL.
func NewYahooClient(baseURL string, client *http.Client) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &YahooClient{baseURL: baseURL, http: client}
}

// Ticker returns the Yahoo ticker for an exchange symbol. Symbols without a
// suffix are assumed to trade on the NSE.
func Ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + ".NS"
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		GMTOffset int `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Candles returns up to years of daily candles for symbol.
func (c *YahooClient) Candles(ctx context.Context, symbol string, years int) ([]models.Candle, error) {
	ticker := Ticker(symbol)
	params := url.Values{}
	params.Set("range", fmt.Sprintf("%dy", years))
	params.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: chart request failed (status %d): %s",
			ticker, resp.StatusCode, truncate(string(body), 200))
	}

	candles, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, err)
	}
	return candles, nil
}

func parseChart(body []byte) ([]models.Candle, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 || len(result.Timestamp) == 0 {
		return nil, ErrNoData
	}
	quote := result.Indicators.Quote[0]
	zone := time.FixedZone("exchange", result.Meta.GMTOffset)
	if result.Meta.GMTOffset == 0 {
		zone = ist
	}

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		candles = append(candles, models.Candle{
			Date:   sessionDate(time.Unix(ts, 0).In(zone)),
			Open:   valueAt(quote.Open, i),
			High:   valueAt(quote.High, i),
			Low:    valueAt(quote.Low, i),
			Close:  valueAt(quote.Close, i),
			Volume: valueAt(quote.Volume, i),
		})
	}

	candles = models.NormalizeCandles(candles)
	if len(candles) == 0 {
		return nil, ErrNoData
	}
	return candles, nil
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}
