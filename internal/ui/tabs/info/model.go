// Package info provides the info tab: configuration, secret sources and build details.
package info

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/doublers-tui/internal/app"
	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/services"
)

// secretsTimeout bounds the secrets document fetch.
const secretsTimeout = 30 * time.Second

// SecretReporter resolves the known secrets and reports their origin.
type SecretReporter interface {
	SecretSources(ctx context.Context) []services.SecretStatus
}

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "check secrets"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

type secretsLoadedMsg struct {
	statuses []services.SecretStatus
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	reporter SecretReporter
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	secrets        []services.SecretStatus
	checking       bool
	secretsChecked bool
}

// New creates a new info model.
func New(state *app.State, cfg *config.Config, reporter SecretReporter) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		reporter: reporter,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabSwitchMsg:
		if msg.Tab == app.TabInfo && !m.secretsChecked {
			return m, m.checkSecrets()
		}

	case secretsLoadedMsg:
		m.secrets = msg.statuses
		m.checking = false
		m.secretsChecked = true

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Refresh) {
			return m, m.checkSecrets()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) checkSecrets() tea.Cmd {
	if m.reporter == nil {
		return nil
	}
	m.checking = true
	reporter := m.reporter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), secretsTimeout)
		defer cancel()
		return secretsLoadedMsg{statuses: reporter.SecretSources(ctx)}
	}
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
