package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/ui/components"
	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// View renders the chart tab.
func (m *Model) View() string {
	var content string
	switch {
	case m.symbol == "":
		content = lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render("Chart"),
			"",
			styles.HelpStyle.Render("Select a pick on the Rankings tab to chart it."),
		)
	case m.loading:
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	case m.errorMsg != "":
		content = fmt.Sprintf("%s %s: %s",
			styles.ErrorTextStyle.Render("Error:"), m.symbol, m.errorMsg)
	case m.history.Len() == 0:
		content = styles.HelpStyle.Render("No price history for " + m.symbol)
	default:
		content = m.renderChart()
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

// window returns the candles in view: the pick's horizon, or everything.
func (m *Model) window(horizon int) []models.Candle {
	candles := m.history.Candles
	if m.showAll || horizon <= 0 || len(candles) == 0 {
		return candles
	}
	cutoff := candles[len(candles)-1].Date.AddDate(0, 0, -horizon*30)
	for i, c := range candles {
		if !c.Date.Before(cutoff) {
			return candles[i:]
		}
	}
	return candles
}

func (m *Model) renderChart() string {
	sel := m.state.GetSelection()
	pick, hasPick := m.state.SelectedPick()
	if hasPick && pick.Symbol != m.symbol {
		hasPick = false
	}

	candles := m.window(sel.Horizon)
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	var levels components.PriceLevels
	if hasPick {
		levels = components.PriceLevels{Stop: pick.StopLoss, Target: pick.TargetPrice}
	}

	span := "all history"
	if !m.showAll && sel.Horizon > 0 {
		span = models.HorizonLabel(sel.Horizon)
	}

	title := styles.TitleStyle.Render(m.symbol)
	sub := styles.HelpStyle.Render(fmt.Sprintf("%s · %d sessions · %s to %s",
		m.history.Source, len(candles),
		candles[0].Date.Format("Jan 2, 2006"), candles[len(candles)-1].Date.Format("Jan 2, 2006")))

	chartWidth := max(m.width-16, 30)
	chartHeight := max(m.height-12, 5)
	chart := components.RenderPriceChart(closes, levels, chartWidth, chartHeight,
		fmt.Sprintf("Daily close, %s", span))

	last, _ := m.history.Last()
	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", sub),
		"",
	}
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}
	if spark := components.RenderSparkline(volumes, chartWidth); spark != "" {
		rows = append(rows, "  "+styles.HelpStyle.Render("Volume "+spark))
	}
	rows = append(rows, "", "  "+components.PriceLegend(last.Close, levels))

	if hasPick {
		rows = append(rows, "  "+fmt.Sprintf("%s #%d · prob %.2f · %s",
			models.HorizonLabel(pick.Horizon), pick.Rank, pick.ProbEst,
			styles.GetReturnStyle(pick.Return).Render(pick.Reason)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
