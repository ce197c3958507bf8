// =============================================================================
// Tangerine Label Generator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the label pipeline:
//
//   1. Load configuration
//   2. Open the configured order source (spreadsheet or document store)
//   3. Fetch the orders past the confirmation checkpoint
//   4. Render and print the label report
//   5. Mark the printed orders as confirmed
//
// FLAGS:
//   --backend : Override the configured backend ("sheet" or "document")
//
// EXIT BEHAVIOR:
//   A run with no new orders prints the no-new-orders message and exits zero.
//   Any fetch, render, or commit failure prints a short message to standard
//   error and exits non-zero; orders are only marked confirmed after the
//   report was printed, so a failed run is safe to retry wholesale.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jejufarm/tangerine-labels/internal/config"
	"github.com/jejufarm/tangerine-labels/internal/label"
	"github.com/jejufarm/tangerine-labels/internal/logging"
	"github.com/jejufarm/tangerine-labels/internal/pipeline"
	"github.com/jejufarm/tangerine-labels/internal/source"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// backendOverride selects the order source backend, overriding the config.
var backendOverride string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Print shipping labels for new orders and mark them confirmed",
	Long: `The process command fetches all order rows from the configured backend,
determines which ones are new by scanning for the last confirmed row,
renders them into the shipping label report grouped by date and sender,
prints the report, and finally writes the confirmation marker into every
printed row.

The confirmation write happens strictly after the report was printed.
If fetching or rendering fails, nothing is marked and the same orders are
picked up again on the next run.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command and its flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(
		&backendOverride,
		"backend",
		"",
		`Order source backend: "sheet" or "document" (defaults to the configured one)`,
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess runs one pipeline pass against the configured backend.
func runProcess() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if backendOverride != "" {
		cfg.Backend = backendOverride
		if cfg.Backend != config.BackendSheet && cfg.Backend != config.BackendDocument {
			return fmt.Errorf("unknown backend %q", cfg.Backend)
		}
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	src, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	renderer := label.New(cfg.Prices, cfg.DefaultSender, logger)
	run := pipeline.New(src, renderer, os.Stdout, logger)

	result := run.Run()
	if result.Err != nil {
		return result.Err
	}
	return nil
}

// openSource builds the order source selected by the configuration.
func openSource(cfg *config.Config, logger *slog.Logger) (source.Source, error) {
	switch cfg.Backend {
	case config.BackendDocument:
		src, err := source.OpenDocumentSource(cfg.Document.Path, cfg.Document.Table, cfg.RequiredFields, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
		return src, nil
	default:
		return source.NewSheetSource(cfg.Sheet.Path, cfg.Sheet.SheetName, cfg.RequiredFields, logger), nil
	}
}
