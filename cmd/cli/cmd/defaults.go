// Package cmd - defaults command
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"uncertainty-budget/adapters/budgetfile"
	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
	"uncertainty-budget/internal/errors"
)

var (
	defaultsUnit   string
	defaultsMin    string
	defaultsMax    string
	defaultsCMC    float64
	defaultsDrift  float64
	defaultsCalUnc float64
	defaultsOutput string
)

// defaultsCmd prints a starter budget file
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print a starter budget file with the default components",
	Long: `Print a YAML budget file holding the four default components: the
reference standard's calibration certificate, drift, resolution and
repeatability. Drift and calibration uncertainty come from the flags.

Examples:
  ubudget defaults --unit mV --cmc 0.085 --drift 0.0003 > budget.yaml
  ubudget defaults --unit V --min 0 --max 10 --cmc 0.00002 -o budget.yaml`,
	Args: cobra.NoArgs,
	RunE: runDefaults,
}

func init() {
	defaultsCmd.Flags().StringVar(&defaultsUnit, "unit", "mV", "unit of the range and components")
	defaultsCmd.Flags().StringVar(&defaultsMin, "min", "0", "range minimum")
	defaultsCmd.Flags().StringVar(&defaultsMax, "max", "100", "range maximum")
	defaultsCmd.Flags().Float64Var(&defaultsCMC, "cmc", 0, "calibration and measurement capability of the range")
	defaultsCmd.Flags().Float64Var(&defaultsDrift, "drift", 0, "drift of the reference standard")
	defaultsCmd.Flags().Float64Var(&defaultsCalUnc, "cal-uncertainty", 0, "calibration certificate uncertainty of the reference standard")
	defaultsCmd.Flags().StringVarP(&defaultsOutput, "output", "o", "", "write to a file instead of stdout")
}

func runDefaults(cmd *cobra.Command, args []string) error {
	f := &budgetfile.File{
		Range: budget.ReferenceRange{
			MinRange: defaultsMin,
			MaxRange: defaultsMax,
			Unit:     defaultsUnit,
			CMC:      defaultsCMC,
		},
		Components: component.Defaults(component.Seed{
			Unit:                   defaultsUnit,
			Drift:                  defaultsDrift,
			CalibrationUncertainty: defaultsCalUnc,
		}),
	}
	if err := f.Range.Validate(); err != nil {
		return err
	}

	data, err := budgetfile.Encode(f)
	if err != nil {
		return err
	}

	if defaultsOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(defaultsOutput, data, 0o644); err != nil {
		return errors.Wrapf(errors.TypeInput, err, "write %s", defaultsOutput)
	}
	writer(cmd.ErrOrStderr()).Success("wrote %s", defaultsOutput)
	return nil
}
