// Package main is the entry point for the ubudget CLI.
package main

import (
	"os"

	"uncertainty-budget/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
