// Package cmd - calculation history commands
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"uncertainty-budget/core/report"
	"uncertainty-budget/internal/config"
)

// historyCmd groups the history commands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived calculations",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived calculations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := svc.Store().ListCalculations(cmd.Context())
		if err != nil {
			return err
		}

		w := writer(cmd.OutOrStdout())
		if len(recs) == 0 {
			w.Info("no calculations")
			return nil
		}
		figures := config.Get().Output.SignificantFigures
		t := w.NewTable("ID", "Created", "Instrument", "Quantity", "Range", "Final uncertainty")
		t.AlignRight(5)
		for _, rec := range recs {
			t.AddRow(rec.ID, rec.CreatedAt.Local().Format(time.DateTime), rec.InstrumentName,
				rec.MeasuredQuantity, rec.MeasurementRange,
				report.SignificantFigures(rec.Result.FinalUncertainty, figures)+" "+rec.Result.Unit)
		}
		t.Render()
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an archived calculation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := svc.Store().GetCalculation(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		cfg := config.Get()
		out := cmd.OutOrStdout()
		format := report.Format(cfg.Output.Format)
		if outputFormat != "" {
			format = report.Format(outputFormat)
		}
		if format == report.FormatJSON {
			return report.WriteJSON(out, rec)
		}

		sheet, err := rec.Sheet()
		if err != nil {
			return err
		}
		return report.WriteTable(out, sheet, report.Options{
			SignificantFigures: cfg.Output.SignificantFigures,
			NoColor:            noColor || cfg.Output.NoColor,
			Title:              rec.InstrumentName + " · " + rec.MeasuredQuantity,
			RangeLabel:         rec.MeasurementRange,
		})
	},
}

func init() {
	historyShowCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (table, json)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}
