package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/doublers-tui/internal/models"
)

// dateLayouts are tried in order. Zoned values are moved to exchange time
// first; naive ones are taken as exchange dates already.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDhanPayload decodes a candle response. It accepts an object holding
// "candles" or "data", or a bare array. Rows may be objects keyed by column
// name or positional arrays [ts, open, high, low, close, volume]. An object
// of parallel arrays is also accepted.
func parseDhanPayload(body []byte) ([]models.Candle, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode candle response: %w", err)
	}

	var rows []any
	switch v := payload.(type) {
	case []any:
		rows = v
	case map[string]any:
		if inner, ok := v["candles"]; ok {
			rows = asRows(inner)
		} else if inner, ok := v["data"]; ok {
			rows = asRows(inner)
		} else if isColumnar(v) {
			rows = columnsToRows(v)
		}
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		c, ok := parseRow(row)
		if ok {
			candles = append(candles, c)
		}
	}

	return models.NormalizeCandles(candles), nil
}

func asRows(v any) []any {
	switch inner := v.(type) {
	case []any:
		return inner
	case map[string]any:
		if isColumnar(inner) {
			return columnsToRows(inner)
		}
	}
	return nil
}

// isColumnar reports whether every value of m is an array.
func isColumnar(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for _, v := range m {
		if _, ok := v.([]any); !ok {
			return false
		}
	}
	return true
}

// columnsToRows turns {"open": [...], "close": [...]} into row objects.
func columnsToRows(m map[string]any) []any {
	n := 0
	for _, v := range m {
		if arr := v.([]any); len(arr) > n {
			n = len(arr)
		}
	}
	rows := make([]any, n)
	for i := range n {
		row := make(map[string]any, len(m))
		for k, v := range m {
			if arr := v.([]any); i < len(arr) {
				row[k] = arr[i]
			}
		}
		rows[i] = row
	}
	return rows
}

// columnFor maps a response key onto a candle column. Later rules win, so a
// key such as "lastTradeTime" resolves to the date.
func columnFor(key string) string {
	lc := strings.ToLower(key)
	col := ""
	if strings.Contains(lc, "open") {
		col = "open"
	}
	if strings.Contains(lc, "high") {
		col = "high"
	}
	if strings.Contains(lc, "low") {
		col = "low"
	}
	if strings.Contains(lc, "close") || strings.Contains(lc, "last") {
		col = "close"
	}
	if strings.Contains(lc, "volume") {
		col = "volume"
	}
	if strings.Contains(lc, "date") || strings.Contains(lc, "time") {
		col = "date"
	}
	return col
}

func parseRow(row any) (models.Candle, bool) {
	c := models.Candle{
		Open:   math.NaN(),
		High:   math.NaN(),
		Low:    math.NaN(),
		Close:  math.NaN(),
		Volume: math.NaN(),
	}

	var date any
	switch r := row.(type) {
	case []any:
		if len(r) == 0 {
			return c, false
		}
		date = r[0]
		fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
		for i, dst := range fields {
			if i+1 < len(r) {
				*dst = toFloat(r[i+1])
			}
		}
	case map[string]any:
		for k, v := range r {
			switch columnFor(k) {
			case "open":
				c.Open = toFloat(v)
			case "high":
				c.High = toFloat(v)
			case "low":
				c.Low = toFloat(v)
			case "close":
				c.Close = toFloat(v)
			case "volume":
				c.Volume = toFloat(v)
			case "date":
				date = v
			}
		}
	default:
		return c, false
	}

	d, ok := toDate(date)
	if !ok {
		return c, false
	}
	c.Date = d
	return c, true
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func toDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case json.Number:
		f, err := d.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return unixDate(f), true
	case float64:
		return unixDate(d), true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			if layout == time.RFC3339 {
				t = t.In(ist)
			}
			return sessionDate(t), true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return unixDate(f), true
		}
	}
	return time.Time{}, false
}
