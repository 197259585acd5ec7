// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/j-veylop/doublers-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Result  bool
	Runs    bool
}

// RunProgress mirrors the progress events of the active run.
type RunProgress struct {
	Running bool
	Done    int
	Total   int
	Symbol  string
}

// UniverseInfo describes the current symbol list.
type UniverseInfo struct {
	Source  string
	Symbols int
}

// Selection is the pick highlighted on the Rankings tab.
type Selection struct {
	Horizon int
	Symbol  string
}

// State is shared by the root model and the tabs.
type State struct {
	mu sync.RWMutex

	Result   *models.RunResult
	Runs     []models.RunRecord
	Progress RunProgress
	Universe UniverseInfo

	selection Selection

	Loading LoadingState

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state with the initial load pending.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "result":
		s.Loading.Result = loading
	case "runs":
		s.Loading.Runs = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.Result || s.Loading.Runs
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, "initial")
	}
	if s.Loading.Result {
		resources = append(resources, "result")
	}
	if s.Loading.Runs {
		resources = append(resources, "runs")
	}
	return resources
}

// SetResult stores the run shown on the Rankings tab. The selection moves to
// the first horizon when its horizon is not part of the new run.
func (s *State) SetResult(res *models.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Result = res
	s.LastUpdated = time.Now()

	if res == nil || len(res.Horizons) == 0 {
		s.selection = Selection{}
		return
	}
	if !slices.Contains(res.Horizons, s.selection.Horizon) {
		s.selection = Selection{Horizon: res.Horizons[0]}
	}
	if top, ok := res.TopPick(s.selection.Horizon); ok && s.selection.Symbol == "" {
		s.selection.Symbol = top.Symbol
	}
}

// GetResult returns the run shown on the Rankings tab.
func (s *State) GetResult() *models.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Result
}

// SetRuns replaces the recent runs list.
func (s *State) SetRuns(runs []models.RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs = runs
}

// GetRuns returns a copy of the recent runs list.
func (s *State) GetRuns() []models.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.Runs)
}

// SetProgress records run progress.
func (s *State) SetProgress(p RunProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Progress = p
}

// GetProgress returns the run progress.
func (s *State) GetProgress() RunProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Progress
}

// SetUniverse records the current universe source and size.
func (s *State) SetUniverse(u UniverseInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Universe = u
}

// GetUniverse returns the current universe source and size.
func (s *State) GetUniverse() UniverseInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Universe
}

// SetSelection updates the highlighted pick.
func (s *State) SetSelection(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
}

// GetSelection returns the highlighted pick.
func (s *State) GetSelection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// SelectedPick returns the highlighted pick of the current result.
func (s *State) SelectedPick() (models.Pick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Result == nil {
		return models.Pick{}, false
	}
	for _, p := range s.Result.Picks[s.selection.Horizon] {
		if p.Symbol == s.selection.Symbol {
			return p, true
		}
	}
	return models.Pick{}, false
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := "n" + strconv.Itoa(s.notificationSeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.ID == id
	})
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.IsExpired()
	})
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the last time a result was stored.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}
