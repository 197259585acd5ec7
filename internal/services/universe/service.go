// Package universe loads the symbol list to screen and reloads it when the file changes.
package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/doublers-tui/internal/logger"
)

// DefaultFile is looked up in the working directory when no path is configured.
const DefaultFile = "nifty500.csv"

// ErrNoSymbolColumn is returned for a CSV without a symbol header.
var ErrNoSymbolColumn = errors.New("invalid CSV: ensure a column named 'symbol' exists")

// Sample is the universe used when no CSV is available.
var Sample = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK",
	"HINDUNILVR", "KOTAKBANK", "SBIN", "BAJFINANCE", "LT",
}

// Event represents a universe service event.
type Event struct {
	Error error
	Type  EventType
}

// EventType defines the type of universe event.
type EventType int

const (
	EventUniverseLoaded EventType = iota
	EventUniverseChanged
	EventError
)

// Service holds the current symbol list and watches its source file.
type Service struct {
	mu            sync.RWMutex
	symbols       []string
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// resolvePath returns the CSV to read, or "" for the built-in sample.
func resolvePath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		if abs, err := filepath.Abs(DefaultFile); err == nil {
			return abs
		}
		return DefaultFile
	}
	return ""
}

// New loads the universe and, for file-backed universes, starts watching
// the file's directory.
func New(path string) (*Service, error) {
	s := &Service{
		filePath:  resolvePath(path),
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if s.filePath == "" {
		s.symbols = append([]string(nil), Sample...)
		logger.Info("using sample universe", "symbols", len(s.symbols))
		s.sendEvent(Event{Type: EventUniverseLoaded})
		return s, nil
	}

	symbols, err := Load(s.filePath)
	if err != nil {
		return nil, err
	}
	s.symbols = symbols

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	logger.Info("universe loaded", "path", s.filePath, "symbols", len(symbols))
	s.sendEvent(Event{Type: EventUniverseLoaded})
	return s, nil
}

// Load reads symbols from a CSV file.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open universe %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("failed to close universe file", "error", err)
		}
	}()

	symbols, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return symbols, nil
}

// Parse reads the symbol column of a CSV. The header match ignores case and
// surrounding space; blank and repeated symbols are dropped and order is kept.
func Parse(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoSymbolColumn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := -1
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		if strings.EqualFold(strings.TrimSpace(name), "symbol") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoSymbolColumn
	}

	seen := make(map[string]struct{})
	var symbols []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if col >= len(record) {
			continue
		}
		sym := strings.TrimSpace(record[col])
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Symbols returns a copy of the current universe.
func (s *Service) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.symbols...)
}

// Count returns the number of symbols.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.symbols)
}

// Path returns the CSV path, or "" for the sample universe.
func (s *Service) Path() string {
	return s.filePath
}

// Describe returns a short label for the universe source.
func (s *Service) Describe() string {
	if s.filePath == "" {
		return "built-in sample"
	}
	return s.filePath
}

// Reload rereads the CSV. The previous list is kept on error.
func (s *Service) Reload() error {
	if s.filePath == "" {
		return nil
	}

	symbols, err := Load(s.filePath)
	if err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return err
	}

	s.mu.Lock()
	s.symbols = symbols
	s.mu.Unlock()

	logger.Info("universe reloaded", "path", s.filePath, "symbols", len(symbols))
	s.sendEvent(Event{Type: EventUniverseChanged})
	return nil
}

func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so editors that replace the file are seen.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			s.mu.Lock()
			if s.debounceTimer != nil {
				s.debounceTimer.Stop()
			}
			s.debounceTimer = time.AfterFunc(debounceInterval, func() {
				_ = s.Reload()
			})
			s.mu.Unlock()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
