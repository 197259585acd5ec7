package runs

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/ui/components"
	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// View renders the runs tab.
func (m *Model) View() string {
	m.sync()

	title := styles.TitleStyle.Render("Runs")
	var content string
	if len(m.runs) == 0 {
		content = lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			styles.HelpStyle.Render("No runs recorded yet. Press r to run the screener."),
		)
	} else {
		content = lipgloss.JoinVertical(lipgloss.Left,
			title,
			styles.HelpStyle.Render(fmt.Sprintf("%d most recent", len(m.runs))),
			"",
			m.table.View(),
			"",
			m.renderDetail(),
		)
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderDetail() string {
	run, ok := m.Selected()
	if !ok {
		return ""
	}

	status := styles.GetStatusStyle(string(run.Status)).Render(string(run.Status))
	lines := []string{fmt.Sprintf("%s %s", status, run.ID)}
	if run.Error != "" {
		lines = append(lines, styles.ErrorTextStyle.Render(run.Error))
	}
	if run.OutFile != "" {
		lines = append(lines, styles.HelpStyle.Render("Workbook: "+run.OutFile))
	}
	if run.UploadedTo != "" {
		lines = append(lines, styles.HelpStyle.Render("Uploaded: "+run.UploadedTo))
	}

	horizons := run.Horizons()
	if len(horizons) > 0 {
		values := make([]float64, len(horizons))
		labels := make([]string, len(horizons))
		for i, h := range horizons {
			values[i] = float64(run.Counts[h])
			labels[i] = models.HorizonLabel(h)
		}
		lines = append(lines, "", styles.CardTitleStyle.Render("Scanned per horizon"),
			components.RenderBarChart(values, labels, min(m.width-4, 60)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
