package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/j-veylop/doublers-tui/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

// shouldUseColor follows NO_COLOR and CLICOLOR_FORCE, then falls back to
// checking whether stdout is a terminal.
func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// printer writes command output, styling headings only when color is on.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: shouldUseColor()}
}

func (p *printer) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *printer) heading(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(headerStyle, fmt.Sprintf(format, args...)))
}

func (p *printer) warn(msg string) {
	fmt.Fprintln(p.w, p.paint(warnStyle, "warning: "+msg))
}

// picks prints one horizon's top list as an aligned table.
func (p *printer) picks(horizon int, list []models.Pick) {
	p.heading("Top %d for %s", len(list), models.HorizonLabel(horizon))
	if len(list) == 0 {
		fmt.Fprintln(p.w, "  (no symbol scored)")
		return
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSYMBOL\tRETURN\tVOL\tAVG VOL\tSCORE\tSTOP\tTARGET")
	for _, pk := range list {
		fmt.Fprintf(tw, "%d\t%s\t%+.1f%%\t%.2f\t%.0f\t%.4f\t%s\t%s\n",
			pk.Rank, pk.Symbol, pk.Return*100, pk.Volatility, pk.AvgVolume, pk.Score,
			price(pk.StopLoss), price(pk.TargetPrice))
	}
	_ = tw.Flush()
}

// summary prints the outcome of a finished run.
func (p *printer) summary(res *models.RunResult) {
	p.heading("Run %s", res.ID)

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Universe\t%d symbols (%d skipped)\n", res.UniverseSize, res.Skipped)
	fmt.Fprintf(tw, "Took\t%s\n", res.Duration().Round(100*time.Millisecond))
	if len(res.Sources) > 0 {
		fmt.Fprintf(tw, "Sources\t%s\n", sources(res.Sources))
	}
	for _, h := range res.Horizons {
		fmt.Fprintf(tw, "%s\t%d scored\n", models.HorizonLabel(h), res.Counts[h])
	}
	fmt.Fprintf(tw, "Workbook\t%s\n", res.OutFile)
	if res.UploadedTo != "" {
		fmt.Fprintf(tw, "Uploaded\t%s\n", res.UploadedTo)
	}
	_ = tw.Flush()

	for _, w := range res.Warnings {
		p.warn(w)
	}
}

func price(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func sources(counts map[models.Source]int) string {
	parts := make([]string, 0, len(counts))
	for _, src := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s %d", src, counts[src]))
	}
	return strings.Join(parts, ", ")
}
