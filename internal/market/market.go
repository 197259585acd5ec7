// Package market fetches daily price history from Dhan with a Yahoo Finance fallback.
package market

import (
	"errors"
	"time"
)

var (
	// ErrNoData is returned when a provider answers without any candles.
	ErrNoData = errors.New("no candle data")
	// ErrUnauthorized is returned when a provider rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// ist is the exchange time zone used to assign calendar dates to timestamps.
var ist = time.FixedZone("IST", 5*3600+30*60)

// userAgent is sent on every outbound request.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) doublers/1.0"

// sessionDate returns the calendar day of t in its own zone as midnight UTC.
func sessionDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// unixDate converts epoch seconds (or milliseconds) to an exchange session date.
func unixDate(v float64) time.Time {
	if v > 1e12 {
		v /= 1000
	}
	return sessionDate(time.Unix(int64(v), 0).In(ist))
}

func isUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
