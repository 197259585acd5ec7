package app

import (
	"time"

	"github.com/j-veylop/doublers-tui/internal/models"
	"github.com/j-veylop/doublers-tui/internal/services"
)

// TickMsg is sent periodically to expire notifications.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// ResultLoadedMsg carries the run to show on the Rankings tab.
type ResultLoadedMsg struct {
	Result *models.RunResult
	Error  error
}

// RunsLoadedMsg carries the recent runs list.
type RunsLoadedMsg struct {
	Runs  []models.RunRecord
	Error error
}

// RunStartedMsg reports whether a background run could be launched.
type RunStartedMsg struct {
	Error error
}

// OpenWorkbookResultMsg contains the result of opening a workbook.
type OpenWorkbookResultMsg struct {
	Path  string
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg is delivered to a tab when it becomes active.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
