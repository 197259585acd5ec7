package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/doublers-tui/internal/config"
	"github.com/j-veylop/doublers-tui/internal/services"
)

var runFlags struct {
	minVolume float64
	noDhan    bool
	universe  string
	quiet     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen the universe once and write the workbook",
	Long: `Fetch candles for every symbol in the universe, rank each horizon and
write top_stocks_<unix>.xlsx to the output directory.

Candles come from Dhan when DHAN_TOKEN resolves, falling back to Yahoo.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, closeLog, err := headless(func(cfg *config.Config) {
			applyRunFlags(cmd, cfg)
		})
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

		res, err := mgr.Run(ctx)
		if err != nil {
			return err
		}

		out := newPrinter(cmd.OutOrStdout())
		out.summary(res)
		if !runFlags.quiet {
			for _, h := range res.Horizons {
				fmt.Fprintln(out.w)
				out.picks(h, res.Picks[h])
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Float64Var(&runFlags.minVolume, "min-volume", 0, "minimum average daily volume (overrides tuning)")
	runCmd.Flags().BoolVar(&runFlags.noDhan, "no-dhan", false, "skip Dhan and fetch from Yahoo only")
	runCmd.Flags().StringVar(&runFlags.universe, "universe", "", "universe CSV with a 'symbol' column")
	runCmd.Flags().BoolVarP(&runFlags.quiet, "quiet", "q", false, "print the summary only")
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("min-volume") {
		cfg.Tuning.MinAvgVolume = runFlags.minVolume
	}
	if runFlags.noDhan {
		cfg.UseDhan = false
	}
	if runFlags.universe != "" {
		cfg.UniversePath = runFlags.universe
	}
}
