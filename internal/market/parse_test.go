package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestParseDhanPayload_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"CandlesKey", `{"candles":[{"date":"2024-01-02","open":1,"high":2,"low":0.5,"close":1.5,"volume":100}]}`},
		{"BareArray", `[{"date":"2024-01-02","open":1,"high":2,"low":0.5,"close":1.5,"volume":100}]`},
		{"DataKey", `{"data":[{"date":"2024-01-02","open":1,"high":2,"low":0.5,"close":1.5,"volume":100}]}`},
		{"PositionalRows", `{"candles":[["2024-01-02T09:15:00+05:30",1,2,0.5,1.5,100]]}`},
		{"Columnar", `{"data":{"timestamp":[1704166200],"open":[1],"high":[2],"low":[0.5],"close":[1.5],"volume":[100]}}`},
		{"StringNumbers", `[{"Date":"2024-01-02","Open":"1","High":"2","Low":"0.5","ClosePrice":"1.5","Volume":"100"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles, err := parseDhanPayload([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, candles, 1)

			c := candles[0]
			assert.Equal(t, date("2024-01-02"), c.Date)
			assert.Equal(t, 1.0, c.Open)
			assert.Equal(t, 2.0, c.High)
			assert.Equal(t, 0.5, c.Low)
			assert.Equal(t, 1.5, c.Close)
			assert.Equal(t, 100.0, c.Volume)
		})
	}
}

func TestParseDhanPayload_UnknownShape(t *testing.T) {
	candles, err := parseDhanPayload([]byte(`{"status":"ok"}`))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestParseDhanPayload_InvalidJSON(t *testing.T) {
	_, err := parseDhanPayload([]byte(`{`))
	assert.Error(t, err)
}

func TestParseDhanPayload_MissingColumnsAreNaN(t *testing.T) {
	candles, err := parseDhanPayload([]byte(`[{"timestamp":"2024-01-03 00:00:00","last":10}]`))
	require.NoError(t, err)
	require.Len(t, candles, 1)

	assert.Equal(t, 10.0, candles[0].Close)
	assert.True(t, math.IsNaN(candles[0].Open))
	assert.True(t, math.IsNaN(candles[0].Volume))
}

func TestParseDhanPayload_SortsAndSkipsUndated(t *testing.T) {
	body := `[
		{"date":"2024-01-03","close":3},
		{"close":99},
		{"date":"2024-01-01","close":1},
		{"date":"not a date","close":5}
	]`
	candles, err := parseDhanPayload([]byte(body))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 1.0, candles[0].Close)
	assert.Equal(t, 3.0, candles[1].Close)
}

func TestParseDhanPayload_ZonedAndEpochAgree(t *testing.T) {
	// 2024-01-01 18:45 UTC is 00:15 on the 2nd in India.
	body := `[
		{"date":"2024-01-01T18:45:00Z","close":1},
		{"timestamp":1704134700,"close":2}
	]`
	candles, err := parseDhanPayload([]byte(body))
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, date("2024-01-02"), candles[0].Date)
	assert.Equal(t, 2.0, candles[0].Close)
}

func TestToDate_NaiveLayoutsKeepTheirDay(t *testing.T) {
	for _, s := range []string{"2024-01-01", "2024-01-01 23:30:00", "2024-01-01T23:30:00"} {
		d, ok := toDate(s)
		require.True(t, ok, s)
		assert.Equal(t, date("2024-01-01"), d, s)
	}
}

func TestColumnFor(t *testing.T) {
	tests := map[string]string{
		"open":          "open",
		"OpenPrice":     "open",
		"high":          "high",
		"low":           "low",
		"closePrice":    "close",
		"last":          "close",
		"tradedVolume":  "volume",
		"date":          "date",
		"timestamp":     "date",
		"lastTradeTime": "date",
		"symbol":        "",
	}
	for key, want := range tests {
		assert.Equal(t, want, columnFor(key), key)
	}
}

func TestUnixDate(t *testing.T) {
	// 2024-01-02 09:15 IST
	assert.Equal(t, date("2024-01-02"), unixDate(1704167100))
	assert.Equal(t, date("2024-01-02"), unixDate(1704167100000))
	// 2024-01-01 20:00 UTC is already the 2nd in India
	assert.Equal(t, date("2024-01-02"), unixDate(1704139200))
}
