package info

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/secrets"
	"github.com/j-veylop/doublers-tui/internal/services"
	"github.com/j-veylop/doublers-tui/internal/ui/styles"
	"github.com/j-veylop/doublers-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderSecretsCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, secrets and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return max(50, min(m.width-6, 90))
}

// renderConfigCard renders the paths and scoring constants.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		universe := m.state.GetUniverse()
		source := universe.Source
		if source == "" {
			source = m.config.UniversePath
		}

		rows = append(rows, m.renderConfigRow("Universe", fmt.Sprintf("%s (%d symbols)", source, universe.Symbols)))
		rows = append(rows, m.renderConfigRow("Database", m.config.DatabasePath))
		rows = append(rows, m.renderConfigRow("Output Dir", m.config.OutputDir))
		rows = append(rows, m.renderConfigRow("Tuning File", m.config.TuningPath))
		rows = append(rows, m.renderConfigRow("Log File", m.config.LogPath))
		rows = append(rows, m.renderConfigRow("Dhan", dhanStatus(m.config.UseDhan)))
		rows = append(rows, m.renderConfigRow("Concurrency", fmt.Sprintf("%d", m.config.FetchConcurrency)))
		rows = append(rows, m.renderConfigRow("Candle Cache", m.config.CacheTTL.String()))
		if m.config.S3Bucket != "" {
			rows = append(rows, m.renderConfigRow("Upload", "s3://"+m.config.S3Bucket+"/"+m.config.S3Prefix))
		}

		t := m.config.Tuning
		horizons := make([]string, len(t.HorizonsMonths))
		for i, h := range t.HorizonsMonths {
			horizons[i] = models.HorizonLabel(h)
		}
		rows = append(rows, "")
		rows = append(rows, m.renderConfigRow("Horizons", strings.Join(horizons, " ")))
		rows = append(rows, m.renderConfigRow("History", fmt.Sprintf("%d years", t.YearsHistory)))
		rows = append(rows, m.renderConfigRow("Min Avg Volume", fmt.Sprintf("%.0f", t.MinAvgVolume)))
		rows = append(rows, m.renderConfigRow("Top N", fmt.Sprintf("%d", t.TopN)))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func dhanStatus(enabled bool) string {
	if enabled {
		return "enabled, Yahoo fallback"
	}
	return "disabled, Yahoo only"
}

// renderSecretsCard reports where each secret resolves from. Values are never shown.
func (m *Model) renderSecretsCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Secrets"))
	rows = append(rows, "")

	switch {
	case m.checking:
		rows = append(rows, styles.HelpStyle.Render("Checking..."))
	case !m.secretsChecked:
		rows = append(rows, styles.HelpStyle.Render("Not checked yet"))
	default:
		for _, s := range m.secrets {
			rows = append(rows, m.renderConfigRow(s.Name, originText(s)))
		}
	}
	if m.config != nil {
		rows = append(rows, m.renderConfigRow("Key File", m.config.FirebaseKeyPath))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Press 's' to check again"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func originText(s services.SecretStatus) string {
	switch {
	case s.Error != nil:
		return styles.ErrorTextStyle.Render(s.Error.Error())
	case s.Origin == secrets.OriginNone:
		return styles.WarningTextStyle.Render("not set")
	default:
		return styles.SuccessTextStyle.Render(string(s.Origin))
	}
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Doublers"))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.GetVersion()))
	rows = append(rows, m.renderConfigRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderConfigRow("Git Commit", version.GetCommit()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	if runs := m.state.GetRuns(); len(runs) > 0 {
		rows = append(rows, "")
		rows = append(rows, fmt.Sprintf("Runs recorded: %s", styles.InfoTextStyle.Render(fmt.Sprintf("%d", len(runs)))))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
