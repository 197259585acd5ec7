// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/services"
	"github.com/j-veylop/doublers-tui/internal/ui/components"
	"github.com/j-veylop/doublers-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabRankings is the ID for the per-horizon rankings tab.
	TabRankings TabID = iota
	// TabChart is the ID for the price chart tab.
	TabChart
	// TabRuns is the ID for the run history tab.
	TabRuns
	// TabInfo is the ID for the info tab.
	TabInfo
)

// tabCount is the number of tabs.
const tabCount = 4

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabRankings:
		return "Rankings"
	case TabChart:
		return "Chart"
	case TabRuns:
		return "Runs"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// Model is the root Bubble Tea model. It owns the shared State, routes
// service events into it and forwards everything else to the active tab.
type Model struct {
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	state    *State
	services *services.Manager
	keymap   KeyMap

	spinner  spinner.Model
	progress components.RunProgressBar

	width  int
	height int

	showHelp bool
	ready    bool

	events chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	names := make([]string, tabCount)
	for i := range names {
		names[i] = TabID(i).String()
	}

	return &Model{
		activeTab: TabRankings,
		tabNames:  names,
		tabs:      make([]Tab, tabCount),
		state:     NewState(),
		services:  mgr,
		keymap:    DefaultKeyMap(),
		spinner:   s,
		progress:  components.NewRunProgressBar(),
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		if u := m.services.Universe(); u != nil {
			m.state.SetUniverse(UniverseInfo{Source: u.Describe(), Symbols: u.Count()})
		}
		cmds = append(cmds, subscribeToServicesCmd(m.services))
		cmds = append(cmds, loadInitialData(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if m.showHelp {
			// The help overlay swallows keys.
			return m, tea.Batch(cmds...)
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.events = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.events))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event))
		if m.events != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.events))
		}
	case ResultLoadedMsg:
		cmds = append(cmds, m.handleResultLoaded(msg))
	case RunsLoadedMsg:
		m.stopLoading("runs")
		if msg.Error != nil {
			cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Failed to load runs: %v", msg.Error)))
		} else {
			m.state.SetRuns(msg.Runs)
		}
	case RunStartedMsg:
		cmds = append(cmds, m.handleRunStarted(msg))
	case OpenWorkbookResultMsg:
		if msg.Error != nil {
			cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Cannot open workbook: %v", msg.Error)))
		} else {
			cmds = append(cmds, notifyInfoCmd("Opened "+msg.Path))
		}
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case StartLoadingMsg:
		m.state.SetLoading(msg.Resource, true)
	case StopLoadingMsg:
		m.stopLoading(msg.Resource)
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(msg.Error.Error()))
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) stopLoading(resource string) {
	m.state.SetLoading(resource, false)
	if !m.state.AnyLoading() && !m.state.GetProgress().Running {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleResultLoaded(msg ResultLoadedMsg) tea.Cmd {
	m.state.SetLoading("initial", false)
	m.stopLoading("result")
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Failed to load last run: %v", msg.Error))
	}
	if msg.Result != nil {
		m.state.SetResult(msg.Result)
	}
	return nil
}

func (m *Model) handleRunStarted(msg RunStartedMsg) tea.Cmd {
	switch {
	case errors.Is(msg.Error, services.ErrRunInProgress):
		return notifyWarningCmd("A run is already in progress")
	case msg.Error != nil:
		return notifyErrorCmd(fmt.Sprintf("Failed to start run: %v", msg.Error))
	}
	return nil
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.UniverseChangedEvent:
		m.state.SetUniverse(UniverseInfo{Source: e.Source, Symbols: e.Symbols})

	case services.RunStartedEvent:
		m.state.SetProgress(RunProgress{Running: true, Total: e.Total})
		m.state.SetLoadingNotification(fmt.Sprintf("Screening %d symbols", e.Total))

	case services.RunProgressEvent:
		m.state.SetProgress(RunProgress{Running: true, Done: e.Done, Total: e.Total, Symbol: e.Symbol})
		m.state.SetLoadingNotification(fmt.Sprintf("Screening %d/%d", e.Done, e.Total))

	case services.RunCompletedEvent:
		return m.handleRunCompleted(e.Result)

	case services.ErrorEvent:
		if e.Service == "notify" {
			logger.Debug("desktop notification failed", "error", e.Error)
			return nil
		}
		if e.Service == "screener" {
			m.state.SetProgress(RunProgress{})
			m.state.ClearLoadingNotification()
		}
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

func (m *Model) handleRunCompleted(res *models.RunResult) tea.Cmd {
	m.state.SetProgress(RunProgress{})
	m.state.ClearLoadingNotification()
	m.state.SetSelection(Selection{})
	m.state.SetResult(res)

	msg := fmt.Sprintf("Screened %d symbols in %s", res.UniverseSize, res.Duration().Round(100*time.Millisecond))
	if top, ok := res.TopPick(res.ShortestHorizon()); ok {
		msg += fmt.Sprintf(", top %s: %s", models.HorizonLabel(top.Horizon), top.Symbol)
	}

	cmds := []tea.Cmd{notifySuccessCmd(msg)}
	for _, w := range res.Warnings {
		cmds = append(cmds, notifyWarningCmd(w))
	}
	if m.services != nil {
		cmds = append(cmds, loadRunsCmd(m.services))
	}
	return tea.Batch(cmds...)
}

// currentTab returns the active tab, or nil when it has not been set.
func (m *Model) currentTab() Tab {
	if int(m.activeTab) < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	tab := m.currentTab()
	if tab == nil {
		return nil
	}
	var cmd tea.Cmd
	m.tabs[m.activeTab], cmd = tab.Update(msg)
	return cmd
}

func (m *Model) updateTabSizes() {
	height := max(0, m.height-chromeHeight)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, height)
		}
	}
}

// switchTab activates a tab and tells it so.
func (m *Model) switchTab(id TabID) tea.Cmd {
	m.activeTab = id
	m.updateTabSizes()
	return func() tea.Msg { return TabSwitchMsg{Tab: id} }
}

// handleKeyMsg handles the global keys. While help is open only the keys
// that close it (or quit) do anything.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keymap.Quit) {
		return tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Escape) {
			m.showHelp = false
		}
		return nil
	}

	if id, ok := m.keymap.tabFor(msg, m.activeTab); ok {
		return m.switchTab(id)
	}

	switch {
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true

	case key.Matches(msg, m.keymap.Run):
		if m.services != nil {
			return startRunCmd(m.services)
		}

	case key.Matches(msg, m.keymap.Cancel):
		if m.services != nil && m.services.Running() {
			m.services.CancelRun()
			return notifyInfoCmd("Cancelling run")
		}

	case key.Matches(msg, m.keymap.Open):
		var path string
		if res := m.state.GetResult(); res != nil {
			path = res.OutFile
		}
		return openWorkbookCmd(path)
	}

	return nil
}
