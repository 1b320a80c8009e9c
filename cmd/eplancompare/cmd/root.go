// Package cmd provides the CLI commands for eplancompare.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eplancompare",
	Short: "Compare electricity provider plans against the regulated tariff",
	Long: `eplancompare simulates electricity provider discount plans against a
household's smart-meter consumption export and ranks them by savings
relative to the regulated IEC tariff.

Examples:
  eplancompare analyze meter_export.csv
  eplancompare serve
  eplancompare worker
  eplancompare migrate up`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(migrateCmd)
}
