package market

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDhan(t *testing.T, handler http.HandlerFunc) *DhanClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewDhanClient(srv.URL, srv.Client())
	c.retryDelay = time.Millisecond
	return c
}

func TestDhanClient_Candles(t *testing.T) {
	var gotQuery, gotAuth, gotPath string
	c := newDhan(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"candles":[["2024-01-02",1,2,0.5,1.5,100],["2024-01-03",1.5,2.5,1,2,200]]}`))
	})

	start := date("2023-01-01")
	end := date("2024-01-03")
	candles, err := c.Candles(context.Background(), "tok", "RELIANCE", start, end)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, "/v1/marketdata/candles", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Contains(t, gotQuery, "symbol=RELIANCE")
	assert.Contains(t, gotQuery, "start=2023-01-01")
	assert.Contains(t, gotQuery, "end=2024-01-03")
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Equal(t, 2.0, candles[1].Close)
}

func TestDhanClient_RetriesOnce(t *testing.T) {
	var hits atomic.Int32
	c := newDhan(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"date":"2024-01-02","close":5}]`))
	})

	candles, err := c.Candles(context.Background(), "tok", "TCS", date("2024-01-01"), date("2024-01-02"))
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDhanClient_GivesUpAfterTwoAttempts(t *testing.T) {
	var hits atomic.Int32
	c := newDhan(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Candles(context.Background(), "tok", "TCS", date("2024-01-01"), date("2024-01-02"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(2), hits.Load())
}

func TestDhanClient_Unauthorized(t *testing.T) {
	var hits atomic.Int32
	c := newDhan(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Candles(context.Background(), "bad", "TCS", date("2024-01-01"), date("2024-01-02"))
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDhanClient_EmptyToken(t *testing.T) {
	c := NewDhanClient("http://127.0.0.1:0", nil)
	_, err := c.Candles(context.Background(), "", "TCS", date("2024-01-01"), date("2024-01-02"))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDhanClient_Empty(t *testing.T) {
	c := newDhan(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candles":[]}`))
	})

	_, err := c.Candles(context.Background(), "tok", "TCS", date("2024-01-01"), date("2024-01-02"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDhanClient_ContextCancelled(t *testing.T) {
	c := newDhan(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.retryDelay = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Candles(ctx, "tok", "TCS", date("2024-01-01"), date("2024-01-02"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

const yahooBody = `{
	"chart": {
		"result": [{
			"meta": {"gmtoffset": 19800},
			"timestamp": [1704167100, 1704253500, 1704339900],
			"indicators": {"quote": [{
				"open":   [1, 2, null],
				"high":   [2, 3, 4],
				"low":    [0.5, 1.5, 2.5],
				"close":  [1.5, 2.5, 3.5],
				"volume": [100, null, 300]
			}]}
		}],
		"error": null
	}
}`

func TestYahooClient_Candles(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	candles, err := c.Candles(context.Background(), "INFY", 8)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, "/v8/finance/chart/INFY.NS", gotPath)
	assert.Equal(t, "8y", gotRange)
	assert.Equal(t, date("2024-01-02"), candles[0].Date)
	assert.Equal(t, date("2024-01-04"), candles[2].Date)
	assert.True(t, math.IsNaN(candles[1].Volume))
	assert.True(t, math.IsNaN(candles[2].Open))
	assert.Equal(t, 3.5, candles[2].Close)
}

func TestYahooClient_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	_, err := c.Candles(context.Background(), "NOPE.BO", 8)
	require.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "NOPE.BO")
}

func TestYahooClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	_, err := c.Candles(context.Background(), "NOPE", 8)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTicker(t *testing.T) {
	assert.Equal(t, "TCS.NS", Ticker("TCS"))
	assert.Equal(t, "TCS.BO", Ticker("TCS.BO"))
}
