// Package chart provides the price chart of the pick selected on the Rankings tab.
package chart

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/doublers-tui/internal/app"
	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/ui/components"
)

// loadTimeout bounds a history fetch that misses the candle store.
const loadTimeout = time.Minute

var errNoServices = errors.New("services not initialized")

// HistorySource returns the daily series of a symbol.
type HistorySource interface {
	History(ctx context.Context, symbol string) (*models.History, error)
}

type keyMap struct {
	ToggleRange key.Binding
	Reload      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "horizon/all history"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "reload"),
		),
	}
}

type historyLoadedMsg struct {
	symbol  string
	history *models.History
}

type historyErrorMsg struct {
	symbol string
	err    error
}

// Model represents the chart tab state.
type Model struct {
	state   *app.State
	source  HistorySource
	width   int
	height  int
	keys    keyMap
	spinner components.LoadingSpinner

	symbol   string
	history  *models.History
	loading  bool
	errorMsg string
	showAll  bool
}

// New creates a new chart model. A nil source leaves the tab empty.
func New(state *app.State, source HistorySource) *Model {
	return &Model{
		state:   state,
		source:  source,
		keys:    defaultKeyMap(),
		spinner: components.NewSpinner("Loading history..."),
	}
}

// Init initializes the chart tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// refresh loads the selected symbol unless it is already shown.
func (m *Model) refresh(force bool) tea.Cmd {
	sel := m.state.GetSelection()
	if sel.Symbol == "" {
		return nil
	}
	// Results only reach the active tab, so a load still pending from an
	// earlier visit is issued again.
	if !force && sel.Symbol == m.symbol && m.history != nil {
		return nil
	}

	m.symbol = sel.Symbol
	m.history = nil
	m.errorMsg = ""
	m.loading = true
	return tea.Batch(m.loadCmd(sel.Symbol), m.spinner.Tick())
}

func (m *Model) loadCmd(symbol string) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		if source == nil {
			return historyErrorMsg{symbol: symbol, err: errNoServices}
		}

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		hist, err := source.History(ctx, symbol)
		if err != nil {
			return historyErrorMsg{symbol: symbol, err: err}
		}
		return historyLoadedMsg{symbol: symbol, history: hist}
	}
}

// Update handles messages for the chart tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabSwitchMsg:
		if msg.Tab == app.TabChart {
			return m, m.refresh(false)
		}

	case historyLoadedMsg:
		if msg.symbol == m.symbol {
			m.history = msg.history
			m.loading = false
		}

	case historyErrorMsg:
		if msg.symbol == m.symbol {
			m.loading = false
			m.errorMsg = msg.err.Error()
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ToggleRange):
			m.showAll = !m.showAll
		case key.Matches(msg, m.keys.Reload):
			return m, m.refresh(true)
		}
	}

	return m, nil
}

// SetSize sets the available size for the chart tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleRange, m.keys.Reload}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.ToggleRange, m.keys.Reload}}
}
