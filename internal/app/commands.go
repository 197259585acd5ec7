package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"

	"github.com/j-veylop/doublers-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// RecentRunsLimit is the number of runs listed on the Runs tab.
	RecentRunsLimit = 20

	loadTimeout = 10 * time.Second
)

// ErrNoWorkbook is returned when there is no workbook to open yet.
var ErrNoWorkbook = errors.New("no workbook yet, press r to run the screener")

// openFile hands a path to the desktop's default application.
var openFile = browser.OpenFile

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData returns a command that loads the latest result and the runs list.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadResultCmd(mgr),
		loadRunsCmd(mgr),
	)
}

// loadResultCmd returns a command that loads the newest completed run.
func loadResultCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		res, err := mgr.LatestResult(ctx)
		return ResultLoadedMsg{Result: res, Error: err}
	}
}

// loadRunsCmd returns a command that loads the recent runs list.
func loadRunsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		runs, err := mgr.RecentRuns(ctx, RecentRunsLimit)
		return RunsLoadedMsg{Runs: runs, Error: err}
	}
}

// startRunCmd returns a command that launches a background run.
func startRunCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return RunStartedMsg{Error: mgr.StartRun()}
	}
}

// openWorkbookCmd returns a command that opens a workbook in the default application.
func openWorkbookCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return OpenWorkbookResultMsg{Error: ErrNoWorkbook}
		}
		return OpenWorkbookResultMsg{Path: path, Error: openFile(path)}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}
