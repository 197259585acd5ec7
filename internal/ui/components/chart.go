// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// ChartColors defines colors for chart elements.
var (
	ChartCloseColor  = lipgloss.Color("#7D56F4")
	ChartStopColor   = lipgloss.Color("#FF5F87")
	ChartTargetColor = lipgloss.Color("#04B575")
)

// PriceLevels are the horizontal levels drawn with a price series.
type PriceLevels struct {
	Stop   *float64
	Target *float64
}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	data = finite(data)
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderPriceChart plots closes with the stop level as a flat second series.
// The target is usually far above the series, so it is only listed in the legend.
func RenderPriceChart(closes []float64, levels PriceLevels, width, height int, caption string) string {
	closes = finite(closes)
	if len(closes) == 0 {
		return styles.HelpStyle.Render("No data available")
	}
	if levels.Stop == nil || math.IsNaN(*levels.Stop) {
		return RenderLineChart(closes, width, height, caption)
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	stop := make([]float64, len(closes))
	for i := range stop {
		stop[i] = *levels.Stop
	}

	return asciigraph.PlotMany([][]float64{closes, stop},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)
}

// PriceLegend describes the close, stop and target levels.
func PriceLegend(lastClose float64, levels PriceLevels) string {
	items := []LegendItem{{Label: fmt.Sprintf("Close %.2f", lastClose), Color: ChartCloseColor}}
	if levels.Stop != nil {
		items = append(items, LegendItem{Label: fmt.Sprintf("Stop %.2f", *levels.Stop), Color: ChartStopColor})
	}
	if levels.Target != nil {
		items = append(items, LegendItem{Label: fmt.Sprintf("Target %.2f", *levels.Target), Color: ChartTargetColor})
	}
	return RenderLegend(items)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	// Find max value for scaling
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		if len(l) > maxLabelLen {
			maxLabelLen = len(l)
		}
	}

	barWidth := width - maxLabelLen - 10 // Leave room for label and value
	if barWidth < 10 {
		barWidth = 10
	}

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := fmt.Sprintf("%*s", maxLabelLen, label)

		barLen := int((v / maxVal) * float64(barWidth))
		if barLen < 0 {
			barLen = 0
		}

		bar := strings.Repeat("█", barLen)
		line := paddedLabel + " │" + bar + fmt.Sprintf(" %.0f", v)
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	values = finite(values)
	if len(values) == 0 || width < 1 {
		return ""
	}

	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	// Sample values to fit width
	var result strings.Builder
	step := float64(len(values)) / float64(width)
	if step < 1 {
		step = 1
	}

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		idx := int((val - lo) / span * float64(len(sparkChars)-1))
		idx = max(0, min(idx, len(sparkChars)-1))
		result.WriteRune(sparkChars[idx])
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// finite drops NaN and infinite points; asciigraph cannot scale them.
func finite(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
