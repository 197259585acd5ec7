package models

import (
	"math"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestNormalizeCandles(t *testing.T) {
	in := []Candle{
		{Date: day("2024-01-03"), Close: 3},
		{Date: day("2024-01-01"), Close: 1},
		{Date: day("2024-01-02"), Close: 2},
		{Date: day("2024-01-01").Add(9 * time.Hour), Close: 10},
	}

	got := NormalizeCandles(in)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantCloses := []float64{10, 2, 3}
	for i, c := range got {
		if c.Close != wantCloses[i] {
			t.Errorf("candle[%d].Close = %v, want %v", i, c.Close, wantCloses[i])
		}
	}
}

func TestNormalizeCandles_Empty(t *testing.T) {
	if got := NormalizeCandles(nil); len(got) != 0 {
		t.Errorf("NormalizeCandles(nil) = %v", got)
	}
}

func TestHistory(t *testing.T) {
	var nilHist *History
	if nilHist.Len() != 0 {
		t.Error("nil history should have length 0")
	}

	h := &History{Candles: []Candle{
		{Date: day("2024-01-01"), Close: 1},
		{Date: day("2024-01-02"), Close: math.NaN()},
		{Date: day("2024-01-03"), Close: 3},
	}}
	last, ok := h.Last()
	if !ok || last.Close != 3 {
		t.Errorf("Last() = %v, %v", last, ok)
	}
	if closes := h.Closes(); len(closes) != 2 {
		t.Errorf("Closes() = %v, want 2 values", closes)
	}
}

func TestReason(t *testing.T) {
	got := Reason(0.1234, 0.25, 123456.7)
	want := "ret=12.34%, vol=0.25, avgVol=123456"
	if got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}

func TestFloatPtr(t *testing.T) {
	if FloatPtr(math.NaN()) != nil {
		t.Error("FloatPtr(NaN) should be nil")
	}
	if FloatPtr(math.Inf(1)) != nil {
		t.Error("FloatPtr(+Inf) should be nil")
	}
	if p := FloatPtr(2.5); p == nil || *p != 2.5 {
		t.Errorf("FloatPtr(2.5) = %v", p)
	}
}

func TestHorizonLabel(t *testing.T) {
	if got := HorizonLabel(18); got != "18m" {
		t.Errorf("HorizonLabel(18) = %q", got)
	}
}

func TestRunResult(t *testing.T) {
	start := time.Now()
	r := &RunResult{
		StartedAt: start,
		Horizons:  []int{12, 6, 48},
		Picks: map[int][]Pick{
			6: {{Symbol: "TCS", Rank: 1}},
		},
	}

	if r.Duration() != 0 {
		t.Error("Duration() should be 0 before finish")
	}
	r.FinishedAt = start.Add(3 * time.Second)
	if r.Duration() != 3*time.Second {
		t.Errorf("Duration() = %v", r.Duration())
	}
	if got := r.ShortestHorizon(); got != 6 {
		t.Errorf("ShortestHorizon() = %d, want 6", got)
	}
	if p, ok := r.TopPick(6); !ok || p.Symbol != "TCS" {
		t.Errorf("TopPick(6) = %v, %v", p, ok)
	}
	if _, ok := r.TopPick(12); ok {
		t.Error("TopPick(12) should be empty")
	}
}

func TestRunRecord_Result(t *testing.T) {
	finished := day("2024-03-01").Add(time.Minute)
	rec := &RunRecord{
		ID:           "run-abc",
		StartedAt:    day("2024-03-01"),
		FinishedAt:   &finished,
		UniverseSize: 12,
		OutFile:      "top_stocks_1.xlsx",
		Counts:       map[int]int{24: 3, 6: 9, 12: 5},
	}

	if got := rec.Horizons(); len(got) != 3 || got[0] != 6 || got[2] != 24 {
		t.Errorf("Horizons() = %v", got)
	}

	res := rec.Result(nil)
	if res.Picks == nil {
		t.Error("Picks should be initialized")
	}
	if res.Duration() != time.Minute {
		t.Errorf("Duration() = %v", res.Duration())
	}
	if res.ShortestHorizon() != 6 || res.UniverseSize != 12 || res.OutFile != "top_stocks_1.xlsx" {
		t.Errorf("Result() = %+v", res)
	}

	rec.FinishedAt = nil
	if rec.Result(nil).Duration() != 0 {
		t.Error("unfinished run should have no duration")
	}
}
