// Package main is the entry point for the doublers screener. With no
// subcommand it starts the terminal UI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/doublers-tui/internal/app"
	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/services"
	"github.com/j-veylop/doublers-tui/internal/ui/tabs/chart"
	"github.com/j-veylop/doublers-tui/internal/ui/tabs/info"
	"github.com/j-veylop/doublers-tui/internal/ui/tabs/rankings"
	"github.com/j-veylop/doublers-tui/internal/ui/tabs/runs"
	"github.com/j-veylop/doublers-tui/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "doublers",
	Short: "Screen NSE stocks for multi-month doublers",
	Long: `doublers ranks a stock universe by momentum per horizon (6-48 months)
and exports the top picks to top_stocks_<unix>.xlsx.

Run without a subcommand to open the terminal UI.

Keyboard shortcuts (UI):
  1-4, Tab        Switch tabs (Rankings, Chart, Runs, Info)
  r / x           Start / cancel a screener run
  o               Open the latest workbook
  [ / ]           Previous / next horizon
  ?               Toggle help
  q, Ctrl+C       Quit

Configuration is read from .env files and the environment
(DATABASE_PATH, UNIVERSE_PATH, OUTPUT_DIR, FIREBASE_KEY_PATH, ...).`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the services and blocks until the user quits.
func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logger.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		rankings.New(state),
		chart.New(state, svcManager),
		runs.New(state, svcManager),
		info.New(state, cfg, svcManager),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// headless loads configuration for the non-interactive commands. Logs go to
// stderr so stdout carries only command output.
func headless(adjust func(*config.Config)) (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if adjust != nil {
		adjust(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logCloser, err := logger.Setup("", cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, func() { _ = logCloser.Close() }, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
