// Package services provides service orchestration for the TUI and the headless commands.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/db"
	"github.com/j-veylop/doublers-tui/internal/export"
	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/market"
	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/screener"
	"github.com/j-veylop/doublers-tui/internal/secrets"
	"github.com/j-veylop/doublers-tui/internal/services/universe"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("a run is already in progress")

type (
	// UniverseChangedEvent is emitted when the symbol list is loaded or reloaded.
	UniverseChangedEvent struct {
		Source  string
		Symbols int
	}

	// RunStartedEvent is emitted when a run begins.
	RunStartedEvent struct {
		Total int
	}

	// RunProgressEvent is emitted after each symbol is fetched and scored.
	RunProgressEvent struct {
		Symbol string
		Done   int
		Total  int
	}

	// RunCompletedEvent is emitted when a run wrote its workbook.
	RunCompletedEvent struct {
		Result *models.RunResult
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UniverseChangedEvent) isServiceEvent() {}
func (RunStartedEvent) isServiceEvent()      {}
func (RunProgressEvent) isServiceEvent()     {}
func (RunCompletedEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()           {}

// SecretStatus describes where a named secret resolves from.
type SecretStatus struct {
	Name   string
	Origin secrets.Origin
	Error  error
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	secrets     *secrets.Store
	fetcher     *market.Fetcher
	screener    *screener.Screener
	universe    *universe.Service
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	notify      func(title, body string) error

	runMu      sync.Mutex
	running    bool
	cancelRun  context.CancelFunc
	lastResult *models.RunResult
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	m.secrets, err = secrets.New(secrets.Options{
		KeyPath:    cfg.FirebaseKeyPath,
		ProjectID:  cfg.FirebaseProjectID,
		Collection: cfg.SecretsCollection,
		Document:   cfg.SecretsDocument,
		HTTPClient: httpClient,
	})
	if err != nil {
		_ = m.closeAll()
		return nil, err
	}

	m.fetcher, err = market.NewFetcher(market.FetcherOptions{
		Store:        m.database,
		Dhan:         market.NewDhanClient(cfg.DhanBaseURL, httpClient),
		Yahoo:        market.NewYahooClient(cfg.YahooBaseURL, httpClient),
		YearsHistory: cfg.Tuning.YearsHistory,
		CacheTTL:     cfg.CacheTTL,
	})
	if err != nil {
		_ = m.closeAll()
		return nil, err
	}

	var uploader screener.Uploader
	if cfg.S3Bucket != "" {
		s3, err := export.NewS3Uploader(context.Background(), cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			_ = m.closeAll()
			return nil, fmt.Errorf("failed to configure upload: %w", err)
		}
		uploader = s3
	}

	m.screener = screener.New(m.fetcher, m.secrets, m.database, uploader)

	m.universe, err = universe.New(cfg.UniversePath)
	if err != nil {
		_ = m.closeAll()
		return nil, err
	}

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.universe.Events():
			m.handleUniverseEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleUniverseEvent(event universe.Event) {
	switch event.Type {
	case universe.EventUniverseLoaded, universe.EventUniverseChanged:
		m.broadcast(UniverseChangedEvent{
			Source:  m.universe.Describe(),
			Symbols: m.universe.Count(),
		})

	case universe.EventError:
		m.broadcast(ErrorEvent{
			Service: "universe",
			Error:   event.Error,
		})
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Run screens the current universe and blocks until the workbook is written.
func (m *Manager) Run(ctx context.Context) (*models.RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	if !m.begin(cancel) {
		cancel()
		return nil, ErrRunInProgress
	}
	defer cancel()
	return m.run(ctx)
}

// StartRun launches a run in the background. Progress and the result are
// delivered as events.
func (m *Manager) StartRun() error {
	ctx, cancel := context.WithCancel(context.Background())
	if !m.begin(cancel) {
		cancel()
		return ErrRunInProgress
	}

	go func() {
		defer cancel()
		_, _ = m.run(ctx)
	}()
	return nil
}

// CancelRun stops the active run, if any.
func (m *Manager) CancelRun() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancelRun != nil {
		m.cancelRun()
	}
}

// Running reports whether a run is active.
func (m *Manager) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

// LastResult returns the most recent successful run of this process.
func (m *Manager) LastResult() *models.RunResult {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.lastResult
}

func (m *Manager) begin(cancel context.CancelFunc) bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	m.cancelRun = cancel
	return true
}

func (m *Manager) run(ctx context.Context) (*models.RunResult, error) {
	defer func() {
		m.runMu.Lock()
		m.running = false
		m.cancelRun = nil
		m.runMu.Unlock()
	}()

	symbols := m.universe.Symbols()
	m.broadcast(RunStartedEvent{Total: len(symbols)})

	// Every run starts from the candle store's freshness check.
	m.fetcher.Forget()

	res, err := m.screener.Run(ctx, symbols, screener.Options{
		Tuning:      m.cfg.Tuning,
		OutputDir:   m.cfg.OutputDir,
		Concurrency: m.cfg.FetchConcurrency,
		UseDhan:     m.cfg.UseDhan,
		OnProgress: func(p screener.Progress) {
			m.broadcast(RunProgressEvent{Symbol: p.Symbol, Done: p.Done, Total: p.Total})
		},
	})
	if err != nil {
		m.broadcast(ErrorEvent{Service: "screener", Error: err})
		return nil, err
	}

	m.runMu.Lock()
	m.lastResult = res
	m.runMu.Unlock()

	m.broadcast(RunCompletedEvent{Result: res})
	m.notifyCompleted(res)
	return res, nil
}

// notifyCompleted sends a desktop notification naming the shortest horizon's top pick.
func (m *Manager) notifyCompleted(res *models.RunResult) {
	if m.notify == nil {
		return
	}

	title := "Doublers run complete"
	body := fmt.Sprintf("%d symbols screened", res.UniverseSize)
	h := res.ShortestHorizon()
	if top, ok := res.TopPick(h); ok {
		body = fmt.Sprintf("Top %s pick: %s (score %.3f)", models.HorizonLabel(h), top.Symbol, top.Score)
	}

	if err := m.notify(title, body); err != nil {
		// Headless sessions have no notification daemon.
		m.broadcast(ErrorEvent{Service: "notify", Error: err})
	}
}

// SecretSources resolves the known secrets and reports where each came from.
func (m *Manager) SecretSources(ctx context.Context) []SecretStatus {
	names := []string{secrets.DhanToken, secrets.NewsAPIKey}
	out := make([]SecretStatus, 0, len(names))
	for _, name := range names {
		_, err := m.secrets.Lookup(ctx, name)
		out = append(out, SecretStatus{Name: name, Origin: m.secrets.Source(name), Error: err})
	}
	return out
}

// History returns the series for a symbol, from memory or the candle store when fresh.
func (m *Manager) History(ctx context.Context, symbol string) (*models.History, error) {
	return m.fetcher.History(ctx, symbol, "")
}

// RecentRuns returns the latest persisted runs.
func (m *Manager) RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	return m.database.GetRecentRuns(ctx, limit)
}

// LatestResult returns this process's last result, or rebuilds the newest
// completed run from the database. It returns nil when no run has completed.
func (m *Manager) LatestResult(ctx context.Context) (*models.RunResult, error) {
	if res := m.LastResult(); res != nil {
		return res, nil
	}

	run, err := m.database.GetLatestRun(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	picks, err := m.database.GetRunPicks(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return run.Result(picks), nil
}

// RunResult rebuilds a persisted run with its picks.
func (m *Manager) RunResult(ctx context.Context, id string) (*models.RunResult, error) {
	run, err := m.database.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	picks, err := m.database.GetRunPicks(ctx, id)
	if err != nil {
		return nil, err
	}
	return run.Result(picks), nil
}

// PruneCandles removes stored candles older than the history window and
// compacts the database when anything was removed.
func (m *Manager) PruneCandles(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(-m.cfg.Tuning.YearsHistory, 0, 0)
	n, err := m.database.PruneCandles(ctx, cutoff)
	if err != nil || n == 0 {
		return n, err
	}
	if err := m.database.Vacuum(ctx); err != nil {
		logger.Warn("vacuum after prune failed", "error", err)
	}
	return n, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Universe returns the universe service.
func (m *Manager) Universe() *universe.Service {
	return m.universe
}

// Secrets returns the secret store.
func (m *Manager) Secrets() *secrets.Store {
	return m.secrets
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	m.CancelRun()

	if m.stopChan != nil {
		close(m.stopChan)
	}

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	return m.closeAll()
}

func (m *Manager) closeAll() error {
	var errs []error

	if m.universe != nil {
		if err := m.universe.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.fetcher != nil {
		m.fetcher.Close()
	}
	if m.secrets != nil {
		m.secrets.Close()
	}
	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
