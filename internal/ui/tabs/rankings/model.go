// Package rankings provides the tab listing the top picks of each horizon.
package rankings

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/doublers-tui/internal/app"
	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the rankings tab.
type keyMap struct {
	PrevHorizon key.Binding
	NextHorizon key.Binding
	Up          key.Binding
	Down        key.Binding
	Chart       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevHorizon: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "shorter horizon"),
		),
		NextHorizon: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "longer horizon"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Chart: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "chart pick"),
		),
	}
}

var columns = []table.Column{
	{Title: "#", Width: 3},
	{Title: "Symbol", Width: 12},
	{Title: "Prob", Width: 6},
	{Title: "Return", Width: 9},
	{Title: "Vol", Width: 6},
	{Title: "Avg Vol", Width: 11},
	{Title: "Score", Width: 8},
	{Title: "Stop", Width: 10},
	{Title: "Target", Width: 10},
}

// headerLines is the height of everything above the table.
const headerLines = 10

// Model represents the rankings tab state.
type Model struct {
	state  *app.State
	width  int
	height int
	keys   keyMap
	table  table.Model

	// result the rows were built from
	result     *models.RunResult
	horizonIdx int
}

// New creates a new rankings model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	m := &Model{
		state: state,
		keys:  defaultKeyMap(),
		table: t,
	}
	m.sync()
	return m
}

// Init initializes the rankings tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the rankings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	m.sync()

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.result == nil {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.PrevHorizon):
		m.setHorizon(m.horizonIdx - 1)
		return m, nil

	case key.Matches(keyMsg, m.keys.NextHorizon):
		m.setHorizon(m.horizonIdx + 1)
		return m, nil

	case key.Matches(keyMsg, m.keys.Chart):
		if m.selectedSymbol() == "" {
			return m, nil
		}
		return m, func() tea.Msg { return app.TabSwitchMsg{Tab: app.TabChart} }
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(keyMsg)
	m.publishSelection()
	return m, cmd
}

// sync rebuilds the table when the shared result changed.
func (m *Model) sync() {
	res := m.state.GetResult()
	if res == m.result {
		return
	}
	m.result = res
	m.horizonIdx = 0

	if res == nil {
		m.table.SetRows(nil)
		return
	}

	sel := m.state.GetSelection()
	if i := slices.Index(res.Horizons, sel.Horizon); i >= 0 {
		m.horizonIdx = i
	}
	m.fillRows()
	m.table.SetCursor(0)

	for i, p := range res.Picks[m.horizon()] {
		if p.Symbol == sel.Symbol {
			m.table.SetCursor(i)
			break
		}
	}
	m.publishSelection()
}

// setHorizon switches to the horizon at idx, clamped to the run's horizons.
func (m *Model) setHorizon(idx int) {
	if m.result == nil || len(m.result.Horizons) == 0 {
		return
	}
	idx = max(0, min(idx, len(m.result.Horizons)-1))
	if idx == m.horizonIdx {
		return
	}
	m.horizonIdx = idx
	m.fillRows()
	m.table.SetCursor(0)
	m.publishSelection()
}

func (m *Model) horizon() int {
	if m.result == nil || m.horizonIdx >= len(m.result.Horizons) {
		return 0
	}
	return m.result.Horizons[m.horizonIdx]
}

func (m *Model) picks() []models.Pick {
	if m.result == nil {
		return nil
	}
	return m.result.Picks[m.horizon()]
}

func (m *Model) fillRows() {
	picks := m.picks()
	rows := make([]table.Row, 0, len(picks))
	for _, p := range picks {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", p.Rank),
			p.Symbol,
			fmt.Sprintf("%.2f", p.ProbEst),
			fmt.Sprintf("%+.1f%%", p.Return*100),
			fmt.Sprintf("%.2f", p.Volatility),
			fmt.Sprintf("%.0f", p.AvgVolume),
			fmt.Sprintf("%.3f", p.Score),
			price(p.StopLoss),
			price(p.TargetPrice),
		})
	}
	m.table.SetRows(rows)
}

func (m *Model) selectedSymbol() string {
	picks := m.picks()
	c := m.table.Cursor()
	if c < 0 || c >= len(picks) {
		return ""
	}
	return picks[c].Symbol
}

// publishSelection stores the highlighted pick for the Chart tab.
func (m *Model) publishSelection() {
	m.state.SetSelection(app.Selection{Horizon: m.horizon(), Symbol: m.selectedSymbol()})
}

// SetSize sets the available size for the rankings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-headerLines, 3))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.PrevHorizon,
		m.keys.NextHorizon,
		m.keys.Chart,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.PrevHorizon, m.keys.NextHorizon},
		{m.keys.Up, m.keys.Down, m.keys.Chart},
	}
}

func price(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
