// Package cmd - compute command
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"uncertainty-budget/adapters/budgetfile"
	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/report"
	"uncertainty-budget/internal/config"
	"uncertainty-budget/internal/errors"
	"uncertainty-budget/internal/logging"
)

var (
	outputFormat string
	sigFigures   int
	parallel     int
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute <file>...",
	Short: "Compute the uncertainty budget of one or more budget files",
	Long: `Load budget files (.hcl, .yaml, .yml or .json) and compute each budget.

Files are computed concurrently and reported in the order given. A file
that fails to load or compute is reported and the command exits non-zero
once every file has been processed.

Examples:
  ubudget compute budget.hcl
  ubudget compute --sig 6 a.yaml b.yaml
  ubudget compute --format json budget.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (table, json); defaults to the configured format")
	computeCmd.Flags().IntVar(&sigFigures, "sig", 0, "significant figures for table output; defaults to the configured value")
	computeCmd.Flags().IntVarP(&parallel, "parallel", "p", runtime.NumCPU(), "number of files computed at once")
}

// fileResult is one file's outcome
type fileResult struct {
	File  string        `json:"file"`
	Sheet *budget.Sheet `json:"sheet,omitempty"`
	Error string        `json:"error,omitempty"`

	err error
}

func computeFiles(cmd *cobra.Command, paths []string) []fileResult {
	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, path := range paths {
		g.Go(func() error {
			results[i] = fileResult{File: path}
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			f, err := budgetfile.Load(path)
			if err == nil {
				results[i].Sheet, err = f.Calculate()
			}
			if err != nil {
				results[i].err = err
				results[i].Error = err.Error()
				logging.With(zap.String("file", path)).Debug("budget failed", zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	format := report.Format(cfg.Output.Format)
	if outputFormat != "" {
		format = report.Format(outputFormat)
	}
	figures := cfg.Output.SignificantFigures
	if sigFigures > 0 {
		figures = sigFigures
	}
	opts := report.Options{SignificantFigures: figures, NoColor: noColor || cfg.Output.NoColor}
	formatter, err := report.NewFormatter(format, opts)
	if err != nil {
		return err
	}

	results := computeFiles(cmd, args)

	var errs error
	for _, r := range results {
		if r.err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.File, r.err))
		}
	}

	out := cmd.OutOrStdout()
	if formatter.Format() == report.FormatJSON {
		var doc interface{} = results
		if len(results) == 1 && results[0].Sheet != nil {
			doc = results[0].Sheet
		}
		if err := report.WriteJSON(out, doc); err != nil {
			return err
		}
		return failed(errs, len(results))
	}

	w := writer(out)
	for _, r := range results {
		if r.err != nil {
			w.Error("%s: %v", r.File, r.err)
			continue
		}
		opts.Title = r.File
		if err := report.WriteTable(out, r.Sheet, opts); err != nil {
			return err
		}
	}
	return failed(errs, len(results))
}

// failed summarises per-file errors that were already written with the
// results.
func failed(errs error, total int) error {
	if errs == nil {
		return nil
	}
	logging.Debug("compute failures", zap.Error(errs))
	return errors.Newf(errors.TypeInput, "%d of %d file(s) failed", len(multierr.Errors(errs)), total)
}
