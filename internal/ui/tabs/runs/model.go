// Package runs provides the tab listing persisted screening runs.
package runs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/doublers-tui/internal/app"
	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

const loadTimeout = 10 * time.Second

// RunSource reads persisted runs.
type RunSource interface {
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
	RunResult(ctx context.Context, id string) (*models.RunResult, error)
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Show   key.Binding
	Reload key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Show: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show picks"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "reload"),
		),
	}
}

var columns = []table.Column{
	{Title: "ID", Width: 12},
	{Title: "Started", Width: 17},
	{Title: "Took", Width: 8},
	{Title: "Universe", Width: 8},
	{Title: "Status", Width: 10},
	{Title: "Scored", Width: 24},
	{Title: "Workbook", Width: 26},
}

// Model represents the runs tab state.
type Model struct {
	state  *app.State
	source RunSource
	width  int
	height int
	keys   keyMap
	table  table.Model

	runs        []models.RunRecord
	fingerprint string
}

// New creates a new runs model.
func New(state *app.State, source RunSource) *Model {
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
		state:  state,
		source: source,
		keys:   defaultKeyMap(),
		table:  t,
	}
	m.sync()
	return m
}

// Init initializes the runs tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the runs tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	m.sync()

	switch msg := msg.(type) {
	case app.TabSwitchMsg:
		if msg.Tab == app.TabRuns {
			return m, m.reloadCmd()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Reload):
			return m, m.reloadCmd()
		case key.Matches(msg, m.keys.Show):
			return m, m.showCmd()
		}

		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) reloadCmd() tea.Cmd {
	if m.source == nil {
		return nil
	}
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		runs, err := source.RecentRuns(ctx, app.RecentRunsLimit)
		return app.RunsLoadedMsg{Runs: runs, Error: err}
	}
}

// showCmd loads the highlighted run onto the Rankings tab.
func (m *Model) showCmd() tea.Cmd {
	run, ok := m.Selected()
	if !ok || m.source == nil {
		return nil
	}
	if run.Status != models.RunStatusCompleted {
		return func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationWarning,
				Message:  fmt.Sprintf("Run %s has no picks (%s)", run.ID, run.Status),
				Duration: app.QuickNotificationDuration,
			}
		}
	}

	source := m.source
	id := run.ID
	load := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		res, err := source.RunResult(ctx, id)
		return app.ResultLoadedMsg{Result: res, Error: err}
	}
	return tea.Sequence(load, func() tea.Msg {
		return app.TabSwitchMsg{Tab: app.TabRankings}
	})
}

// sync rebuilds the rows when the shared runs list changed.
func (m *Model) sync() {
	runs := m.state.GetRuns()
	fp := fingerprint(runs)
	if fp == m.fingerprint {
		return
	}
	m.runs = runs
	m.fingerprint = fp

	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			took(r),
			fmt.Sprintf("%d", r.UniverseSize),
			string(r.Status),
			scored(r),
			workbook(r.OutFile),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func fingerprint(runs []models.RunRecord) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.ID)
		b.WriteByte(':')
		b.WriteString(string(r.Status))
		b.WriteByte(';')
	}
	return b.String()
}

// Selected returns the highlighted run.
func (m *Model) Selected() (models.RunRecord, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.runs) {
		return models.RunRecord{}, false
	}
	return m.runs[c], true
}

func took(r models.RunRecord) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

// scored lists the per-horizon counts, e.g. "6m:41 12m:40".
func scored(r models.RunRecord) string {
	parts := make([]string, 0, len(r.Counts))
	for _, h := range r.Horizons() {
		parts = append(parts, fmt.Sprintf("%s:%d", models.HorizonLabel(h), r.Counts[h]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func workbook(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}

// SetSize sets the available size for the runs tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-16, 3))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Show, m.keys.Reload}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Show, m.keys.Reload},
	}
}
