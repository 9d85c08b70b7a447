// Package cmd - instrument catalogue commands
package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"uncertainty-budget/adapters/catalog"
)

// instrumentsCmd groups the catalogue commands
var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "Manage the instrument catalogue",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var instrumentsImportCmd = &cobra.Command{
	Use:   "import <catalogue.yaml>",
	Short: "Import instruments from a YAML catalogue",
	Long: `Import instruments, their measurement quantities and ranges from a
YAML catalogue. Every entry is validated first; nothing is imported when
any entry is invalid. Entries carrying an id replace the stored instrument.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := catalog.Load(args[0])
		if err != nil {
			return err
		}

		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := catalog.Import(cmd.Context(), svc.Store(), doc)
		w := writer(cmd.OutOrStdout())
		for _, inst := range saved {
			w.Success("%s  %s", inst.ID, inst.Name)
		}
		if err != nil {
			return err
		}
		w.Info("imported %d instruments", len(saved))
		return nil
	},
}

var instrumentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instruments, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		insts, err := svc.Store().ListInstruments(cmd.Context())
		if err != nil {
			return err
		}

		w := writer(cmd.OutOrStdout())
		if len(insts) == 0 {
			w.Info("no instruments")
			return nil
		}
		t := w.NewTable("ID", "Name", "Brand", "Quantity", "Range", "CMC")
		t.AlignRight(5)
		for _, inst := range insts {
			for _, q := range inst.Quantities {
				for _, r := range q.Ranges {
					t.AddRow(inst.ID, inst.Name, inst.Brand, q.MeasuredQuantity, r.Label(),
						strconv.FormatFloat(r.CMC, 'g', -1, 64))
				}
			}
		}
		t.Render()
		return nil
	},
}

var instrumentsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalogue as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		insts, err := svc.Store().ListInstruments(cmd.Context())
		if err != nil {
			return err
		}
		data, err := catalog.Export(insts)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	instrumentsCmd.AddCommand(instrumentsImportCmd)
	instrumentsCmd.AddCommand(instrumentsListCmd)
	instrumentsCmd.AddCommand(instrumentsExportCmd)
}
