package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// chromeHeight is the navbar (text plus border) and the status bar, with a
// blank line on either side of the tab body.
const chromeHeight = 5

// toastTop is the first row toasts are drawn on, just under the navbar.
const toastTop = 2

var (
	navbarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(styles.Subtle)
	navActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Padding(0, 2)
	navInactiveStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Padding(0, 2)
	statusBarStyle   = lipgloss.NewStyle().Foreground(styles.TextMuted).Padding(0, 1)
	loadingStyle     = lipgloss.NewStyle().Padding(1, 2)
	helpTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)
	helpGroupStyle   = lipgloss.NewStyle().Foreground(styles.Primary)
	helpHintStyle    = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// toastLook maps a notification type to its colour and prefix. Loading
// toasts use the spinner frame as prefix.
var toastLook = map[NotificationType]struct {
	color  lipgloss.TerminalColor
	prefix string
}{
	NotificationSuccess: {styles.Success, "[OK]"},
	NotificationError:   {styles.Error, "[ERR]"},
	NotificationWarning: {styles.Warning, "[WARN]"},
	NotificationInfo:    {styles.Info, "[INFO]"},
	NotificationLoading: {styles.Info, ""},
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(loadingStyle.Render(m.spinner.View() + " Loading..."))
		return b.String()
	}

	if tab := m.currentTab(); tab != nil {
		b.WriteString(tab.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	view := b.String()

	if m.showHelp {
		help := m.renderHelp()
		x := (m.width - lipgloss.Width(help)) / 2
		y := (m.height - lipgloss.Height(help)) / 2
		view = placeAt(view, help, x, y)
	}

	if toasts := m.renderToasts(); toasts != "" {
		view = placeAt(view, toasts, m.width-lipgloss.Width(toasts)-2, toastTop)
	}

	return view
}

// placeAt draws block over base with its top-left corner at column x, row y.
// Cells of base left and right of the block stay visible. Rows past the end
// of base are dropped.
func placeAt(base, block string, x, y int) string {
	x, y = max(x, 0), max(y, 0)
	baseLines := strings.Split(base, "\n")
	width := lipgloss.Width(block)

	for i, line := range strings.Split(block, "\n") {
		row := y + i
		if row >= len(baseLines) {
			break
		}
		under := baseLines[row]
		left := ansi.Truncate(under, x, "")
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(under, x+width, "")
		baseLines[row] = left + line + right
	}

	return strings.Join(baseLines, "\n")
}

func (m *Model) renderNavbar() string {
	items := make([]string, 0, len(m.tabNames))
	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			items = append(items, navActiveStyle.Render(fmt.Sprintf("[%d] %s", i+1, name)))
			continue
		}
		items = append(items, navInactiveStyle.Render(fmt.Sprintf(" %d  %s", i+1, name)))
	}
	return navbarStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, items...))
}

// renderStatusBar shows run progress while screening, otherwise the universe and last run.
func (m *Model) renderStatusBar() string {
	if p := m.state.GetProgress(); p.Running {
		return statusBarStyle.Render(
			m.spinner.View() + " " + m.progress.View(p.Done, p.Total, p.Symbol, m.width-4),
		)
	}

	var parts []string
	if u := m.state.GetUniverse(); u.Symbols > 0 {
		parts = append(parts, fmt.Sprintf("universe %d (%s)", u.Symbols, u.Source))
	}
	if res := m.state.GetResult(); res != nil {
		parts = append(parts, "last run "+res.StartedAt.Local().Format("Jan 2 15:04"))
	}
	parts = append(parts, "r run · o open · ? help")

	return statusBarStyle.Render(ansi.Truncate(strings.Join(parts, " · "), max(m.width-2, 0), "…"))
}

// renderToasts stacks the live notifications, right aligned. Empty when
// there are none.
func (m *Model) renderToasts() string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return ""
	}

	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		look := toastLook[n.Type]
		prefix := look.prefix
		if n.Type == NotificationLoading {
			prefix = m.spinner.View()
		}

		style := lipgloss.NewStyle().Foreground(look.color).Padding(0, 1)
		if n.Type == NotificationError {
			style = style.Bold(true)
		}
		toasts = append(toasts, styles.ToastStyle.Render(style.Render(prefix+" "+n.Message)))
	}
	return lipgloss.JoinVertical(lipgloss.Right, toasts...)
}

// renderHelp lists the global bindings followed by the active tab's.
func (m *Model) renderHelp() string {
	lines := []string{helpTitleStyle.Render("Keyboard Shortcuts"), ""}

	group := func(title string, bindings []key.Binding) {
		if len(bindings) == 0 {
			return
		}
		lines = append(lines, helpGroupStyle.Render(title))
		for _, b := range bindings {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("  %-12s %s", h.Key, h.Desc))
		}
		lines = append(lines, "")
	}

	full := m.keymap.FullHelp()
	group("Navigation", slices.Concat(full[0], full[1]))
	group("Actions", slices.Concat(full[2], full[3]))
	if tab := m.currentTab(); tab != nil {
		group(m.tabNames[m.activeTab]+" Tab", tab.ShortHelp())
	}

	lines = append(lines, helpHintStyle.Render("Press ? or Esc to close"))
	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}
