// Package cmd - check command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"uncertainty-budget/adapters/budgetfile"
	"uncertainty-budget/core/component"
)

// checkCmd lints a budget file
var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Report every problem in a budget file",
	Long: `Validate a budget file without computing it.

Unlike compute, which stops at the first invalid component, check lists
every problem it finds.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	w := writer(cmd.OutOrStdout())

	f, err := budgetfile.Load(args[0])
	if err != nil {
		w.Error("%v", err)
		return err
	}

	problems := multierr.Combine(f.Range.Validate(), component.ValidateAll(f.Components))
	if problems == nil {
		w.Success("%s: %d components, no problems", f.Path, len(f.Components))
		return nil
	}

	errs := multierr.Errors(problems)
	for _, p := range errs {
		w.Error("%v", p)
	}
	return fmt.Errorf("%s: %d problem(s)", f.Path, len(errs))
}
