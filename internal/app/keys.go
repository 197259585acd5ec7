package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the global keybindings. Tab-specific keys live on each tab.
type KeyMap struct {
	Tabs    [tabCount]key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Run     key.Binding
	Cancel  key.Binding
	Open    key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	k := KeyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "previous tab")),
		Run:     key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "run screener")),
		Cancel:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel run")),
		Open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open last workbook")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
	for i := range k.Tabs {
		n := fmt.Sprint(i + 1)
		k.Tabs[i] = key.NewBinding(key.WithKeys(n), key.WithHelp(n, TabID(i).String()))
	}
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Open, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Tabs[:],
		{k.NextTab, k.PrevTab},
		{k.Run, k.Cancel, k.Open},
		{k.Help, k.Quit},
	}
}

// tabFor reports which tab a key selects, if any.
func (k KeyMap) tabFor(msg tea.KeyMsg, active TabID) (TabID, bool) {
	for i, b := range k.Tabs {
		if key.Matches(msg, b) {
			return TabID(i), true
		}
	}
	switch {
	case key.Matches(msg, k.NextTab):
		return (active + 1) % tabCount, true
	case key.Matches(msg, k.PrevTab):
		return (active + tabCount - 1) % tabCount, true
	}
	return active, false
}
