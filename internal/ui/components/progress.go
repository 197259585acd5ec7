package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// RunProgressBar renders how far a screening run has got through the universe.
type RunProgressBar struct {
	progress progress.Model
}

// NewRunProgressBar creates a progress bar with the run gradient.
func NewRunProgressBar() RunProgressBar {
	p := progress.New(
		progress.WithScaledGradient("#7D56F4", "#04B575"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return RunProgressBar{progress: p}
}

// Fraction returns done/total clamped to [0, 1].
func Fraction(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(done) / float64(total)
	return max(0, min(f, 1))
}

// View renders the bar followed by the counter and the last symbol processed.
func (b RunProgressBar) View(done, total int, symbol string, width int) string {
	b.progress.Width = max(width-40, 10)

	bar := b.progress.ViewAs(Fraction(done, total))
	counter := styles.ProgressPercentStyle.Width(12).Render(fmt.Sprintf("%d/%d", done, total))
	last := styles.ProgressLabelStyle.Render(symbol)

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", counter, " ", last)
}
