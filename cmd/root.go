// =============================================================================
// Tangerine Label Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (labelgen)
//   ├── processCmd (labelgen process)
//   ├── migrateCmd (labelgen migrate)
//   └── versionCmd (labelgen version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true, overriding the configured
// log level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "labelgen",

	Short: "Tangerine Label Generator - Turn new box orders into shipping labels",

	Long: `Tangerine Label Generator reads tangerine-box orders from a tabular
backend (an XLSX workbook of order form responses, or a SQLite document
store), picks out the orders not yet processed, prints shipping labels
grouped by sender and date with running totals, and marks the printed
orders as confirmed so they are never printed twice.

The confirmation marker doubles as the checkpoint: there is no stored
cursor, every run derives the processed/new boundary by scanning for the
last confirmed row. Orders are only marked after the labels printed
successfully, so a failed run loses nothing and simply retries the same
orders next time.

Example Usage:
  labelgen process                     # Print labels for new orders
  labelgen process --backend document  # Use the document store backend
  labelgen migrate                     # Copy spreadsheet orders into the store`,

	// If no subcommand is provided, print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// Persistent flags are available to this command and all subcommands.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
