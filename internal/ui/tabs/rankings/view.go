package rankings

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// View renders the rankings tab.
func (m *Model) View() string {
	m.sync()

	if m.result == nil {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(),
		m.renderMetrics(),
		m.table.View(),
		m.renderReason(),
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderEmpty() string {
	universe := m.state.GetUniverse()
	hint := "Press r to run the screener."
	if universe.Symbols > 0 {
		hint = fmt.Sprintf("Press r to screen %d symbols from %s.", universe.Symbols, universe.Source)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Top picks"),
		"",
		styles.HelpStyle.Render("No completed run yet."),
		styles.HelpStyle.Render(hint),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Top picks")

	var tabs []string
	for i, h := range m.result.Horizons {
		label := models.HorizonLabel(h)
		if i == m.horizonIdx {
			tabs = append(tabs, styles.HorizonActiveStyle.Render(label))
		} else {
			tabs = append(tabs, styles.HorizonInactiveStyle.Render(label))
		}
	}
	selector := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	subtitle := styles.HelpStyle.Render(fmt.Sprintf("Run %s · %s",
		m.result.ID, m.result.StartedAt.Local().Format("Jan 2, 2006 15:04")))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", selector),
		subtitle,
	)
}

// renderMetrics shows the run totals and how many symbols each horizon scored.
func (m *Model) renderMetrics() string {
	cards := []string{
		metric(fmt.Sprintf("%d", m.result.UniverseSize), "universe"),
		metric(fmt.Sprintf("%d", m.result.Skipped), "skipped"),
	}
	for _, h := range m.result.Horizons {
		cards = append(cards, metric(fmt.Sprintf("%d", m.result.Counts[h]), models.HorizonLabel(h)+" scored"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metric(value, label string) string {
	return styles.MetricCardStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		styles.MetricValueStyle.Render(value),
		styles.MetricLabelStyle.Render(label),
	))
}

func (m *Model) renderReason() string {
	picks := m.picks()
	c := m.table.Cursor()
	if len(picks) == 0 {
		return styles.HelpStyle.Render(fmt.Sprintf("No symbol scored for %s.", models.HorizonLabel(m.horizon())))
	}
	if c < 0 || c >= len(picks) {
		return ""
	}
	p := picks[c]
	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.GetReturnStyle(p.Return).Render(p.Symbol),
		"  ",
		styles.HelpStyle.Render(p.Reason),
	)
}
