// Package cmd provides the CLI commands for ubudget.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"uncertainty-budget/adapters/storage"
	"uncertainty-budget/core/service"
	"uncertainty-budget/core/ui"
	"uncertainty-budget/internal/config"
	"uncertainty-budget/internal/logging"
)

const version = "1.0.0"

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ubudget",
	Short: "Compute GUM measurement uncertainty budgets",
	Long: `ubudget computes measurement uncertainty budgets the GUM way.

Each component's standard uncertainty is combined in quadrature, expanded
with k = 2 and floored at the range's calibration and measurement
capability (CMC).

Examples:
  ubudget compute budget.hcl
  ubudget compute --format json --sig 6 a.yaml b.yaml
  ubudget defaults --unit mV --cmc 0.085 > budget.yaml
  ubudget instruments import catalogue.yaml
  ubudget serve`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ubudget.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colour output")

	// Add subcommands
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(defaultsCmd)
	rootCmd.AddCommand(instrumentsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// writer returns a UI writer honouring --no-color and the config.
func writer(out io.Writer) *ui.Writer {
	w := ui.NewWriter(out, noColor || config.Get().Output.NoColor)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}

// openService opens the configured store. The caller closes the store.
func openService(ctx context.Context) (*service.Service, storage.Store, error) {
	store, err := storage.Open(ctx, config.Get().Storage)
	if err != nil {
		return nil, nil, err
	}
	return service.New(store, logging.Logger), store, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ubudget version %s\n", version)
	},
}
