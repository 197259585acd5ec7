package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

func TestSpinner(t *testing.T) {
	s := NewSpinner("Loading history...")
	if !strings.Contains(s.String(), "Loading history...") {
		t.Errorf("String() = %q, want label", s.String())
	}
	if NewSpinner("").String() == "" {
		t.Error("unlabelled spinner should still draw a frame")
	}

	_, cmd := s.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Update should return command for tick")
	}
	if s.Tick() == nil {
		t.Error("Tick should return command")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	view := RenderSpinnerCentered(s, 20, 5)
	if view == "" {
		t.Error("RenderSpinnerCentered returned empty")
	}
}

func TestRenderLineChart(t *testing.T) {
	s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test")
	if !strings.Contains(s, "Test") {
		t.Errorf("RenderLineChart missing caption: %q", s)
	}
}

func TestRenderLineChart_Empty(t *testing.T) {
	nan := []float64{nanValue()}
	if s := RenderLineChart(nan, 20, 5, "x"); !strings.Contains(s, "No data") {
		t.Errorf("RenderLineChart(NaN) = %q", s)
	}
}

func TestRenderPriceChart(t *testing.T) {
	stop := 1.5
	closes := []float64{2, 3, nanValue(), 4}

	withStop := RenderPriceChart(closes, PriceLevels{Stop: &stop}, 20, 5, "TCS")
	if withStop == "" {
		t.Error("RenderPriceChart returned empty")
	}

	noStop := RenderPriceChart(closes, PriceLevels{}, 20, 5, "TCS")
	if noStop != RenderLineChart(closes, 20, 5, "TCS") {
		t.Error("without a stop the chart should be a single series")
	}

	if s := RenderPriceChart(nil, PriceLevels{}, 20, 5, ""); !strings.Contains(s, "No data") {
		t.Errorf("RenderPriceChart(nil) = %q", s)
	}
}

func TestPriceLegend(t *testing.T) {
	stop, target := 90.0, 200.0
	s := PriceLegend(100, PriceLevels{Stop: &stop, Target: &target})
	for _, want := range []string{"Close 100.00", "Stop 90.00", "Target 200.00"} {
		if !strings.Contains(s, want) {
			t.Errorf("PriceLegend() missing %q: %q", want, s)
		}
	}

	if s := PriceLegend(100, PriceLevels{}); strings.Contains(s, "Stop") {
		t.Errorf("PriceLegend() without levels = %q", s)
	}
}

func TestRenderBarChart(t *testing.T) {
	s := RenderBarChart([]float64{10, 20}, []string{"6m", "12m"}, 40)
	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderBarChart lines = %d, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[1], " 20") {
		t.Errorf("line = %q", lines[1])
	}
	if RenderBarChart(nil, nil, 40) != "" {
		t.Error("empty bar chart should render nothing")
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{1, 2, 3}, 10)
	if []rune(s)[0] != '▁' || []rune(s)[2] != '█' {
		t.Errorf("RenderSparkline = %q", s)
	}
	if RenderSparkline([]float64{5, 5}, 4) == "" {
		t.Error("flat series should still render")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "A", Color: lipgloss.Color("#ffffff")},
	}
	if s := RenderLegend(items); !strings.Contains(s, "A") {
		t.Errorf("RenderLegend = %q", s)
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 0, 0},
		{5, 10, 0.5},
		{12, 10, 1},
		{-1, 10, 0},
	}
	for _, tt := range tests {
		if got := Fraction(tt.done, tt.total); got != tt.want {
			t.Errorf("Fraction(%d, %d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestRunProgressBar_View(t *testing.T) {
	b := NewRunProgressBar()
	s := b.View(4, 8, "INFY", 80)
	if !strings.Contains(s, "4/8") || !strings.Contains(s, "INFY") {
		t.Errorf("View() = %q", s)
	}
}

func nanValue() float64 {
	return math.NaN()
}
