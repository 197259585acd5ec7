package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/doublers-tui/internal/services"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stored candles older than the history window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, closeLog, err := headless(nil)
		if err != nil {
			return err
		}
		defer closeLog()

		mgr, err := services.NewManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer func() { _ = mgr.Close() }()

		ctx, stop := signalContext()
		defer stop()

		n, err := mgr.PruneCandles(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d candles older than %d years\n", n, cfg.Tuning.YearsHistory)
		return nil
	},
}
