package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/server"
	"github.com/j-veylop/doublers-tui/internal/services"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recorded runs and workbooks over HTTP",
	Long: `Serve the run history as JSON and the exported workbooks as downloads.

  GET /healthz
  GET /api/runs?limit=N
  GET /api/runs/latest
  GET /api/runs/:id
  GET /download/:id`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, closeLog, err := headless(nil)
		if err != nil {
			return err
		}
		defer closeLog()

		addr := serveAddr
		if addr == "" {
			addr = cfg.ServeAddr
		}

		mgr, err := services.NewManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer func() { _ = mgr.Close() }()

		ctx, stop := signalContext()
		defer stop()

		logger.Info("serving runs", "addr", addr)
		return server.New(mgr).Listen(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default SERVE_ADDR)")
}
