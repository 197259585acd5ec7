package info

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/doublers-tui/internal/app"
	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/secrets"
	"github.com/j-veylop/doublers-tui/internal/services"
)

type fakeReporter struct {
	statuses []services.SecretStatus
	calls    int
}

func (f *fakeReporter) SecretSources(context.Context) []services.SecretStatus {
	f.calls++
	return f.statuses
}

func testConfig() *config.Config {
	return &config.Config{
		DatabasePath:     "/tmp/doublers.db",
		OutputDir:        "/tmp/out",
		FirebaseKeyPath:  "serviceAccountKey.json",
		UseDhan:          true,
		FetchConcurrency: 4,
		Tuning:           config.DefaultTuning(),
	}
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), testConfig(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should not issue commands")
	}
}

func TestModel_View(t *testing.T) {
	state := app.NewState()
	state.SetUniverse(app.UniverseInfo{Source: "universe.csv", Symbols: 42})
	m := New(state, testConfig(), nil)
	m.SetSize(100, 80)

	view := m.View()
	for _, want := range []string{"universe.csv (42 symbols)", "/tmp/doublers.db", "6m 12m 18m 24m 48m", "Not checked yet", "Go Version"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_NilConfig(t *testing.T) {
	m := New(app.NewState(), nil, nil)
	m.SetSize(80, 60)
	if !strings.Contains(m.View(), "Configuration not loaded") {
		t.Error("expected missing configuration notice")
	}
}

func TestModel_SecretsCheckedOnFirstVisit(t *testing.T) {
	rep := &fakeReporter{statuses: []services.SecretStatus{
		{Name: secrets.DhanToken, Origin: secrets.OriginFirestore},
		{Name: secrets.NewsAPIKey, Origin: secrets.OriginNone},
	}}
	m := New(app.NewState(), testConfig(), rep)
	m.SetSize(100, 80)

	_, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabInfo})
	if cmd == nil {
		t.Fatal("expected secrets check on first visit")
	}
	if !strings.Contains(m.View(), "Checking...") {
		t.Error("expected checking state")
	}

	m.Update(cmd())
	if rep.calls != 1 {
		t.Errorf("SecretSources calls = %d", rep.calls)
	}

	view := m.View()
	for _, want := range []string{"DHAN_TOKEN", "firestore", "NEWSAPI_KEY", "not set"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	if _, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabInfo}); cmd != nil {
		t.Error("second visit should not re-check")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if cmd == nil {
		t.Fatal("s should re-check secrets")
	}
	m.Update(cmd())
	if rep.calls != 2 {
		t.Errorf("SecretSources calls = %d", rep.calls)
	}
}

func TestOriginText(t *testing.T) {
	got := originText(services.SecretStatus{Name: secrets.DhanToken, Error: errors.New("key file missing")})
	if !strings.Contains(got, "key file missing") {
		t.Errorf("originText(error) = %q", got)
	}
	if got := originText(services.SecretStatus{Origin: secrets.OriginEnv}); !strings.Contains(got, "env") {
		t.Errorf("originText(env) = %q", got)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), testConfig(), nil)
	if len(m.ShortHelp()) != 1 {
		t.Errorf("ShortHelp = %d", len(m.ShortHelp()))
	}
	if len(m.FullHelp()) != 2 {
		t.Errorf("FullHelp = %d", len(m.FullHelp()))
	}
}
