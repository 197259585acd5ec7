package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/doublers-tui/internal/export"
)

var showCmd = &cobra.Command{
	Use:   "show <workbook.xlsx>",
	Short: "Print the top lists stored in an exported workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := export.ReadWorkbook(args[0])
		if err != nil {
			return err
		}

		out := newPrinter(cmd.OutOrStdout())
		if len(wb.Horizons) == 0 {
			return fmt.Errorf("%s has no horizon sheets", args[0])
		}
		for i, h := range wb.Horizons {
			if i > 0 {
				fmt.Fprintln(out.w)
			}
			out.picks(h, wb.Picks[h])
		}
		return nil
	},
}
