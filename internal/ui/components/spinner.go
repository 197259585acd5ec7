package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

var spinnerLabelStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary)

// LoadingSpinner is a dot spinner followed by a muted label.
type LoadingSpinner struct {
	spinner spinner.Model
	label   string
}

// NewSpinner returns a spinner showing label.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return LoadingSpinner{spinner: s, label: label}
}

// Update advances the animation on tick messages.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// Tick starts the animation.
func (l LoadingSpinner) Tick() tea.Cmd {
	return l.spinner.Tick
}

func (l LoadingSpinner) String() string {
	if l.label == "" {
		return l.spinner.View()
	}
	return l.spinner.View() + " " + spinnerLabelStyle.Render(l.label)
}

// RenderSpinnerCentered places the spinner and its label in the middle of a
// width by height box.
func RenderSpinnerCentered(s LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.String(), width, height)
}
