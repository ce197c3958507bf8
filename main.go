// =============================================================================
// Tangerine Label Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Tangerine Label Generator CLI. It
// initializes the Cobra CLI framework and delegates command execution to the
// cmd package.
//
// USAGE:
//   labelgen process       - Print shipping labels for new orders
//   labelgen migrate       - Copy spreadsheet orders into the document store
//   labelgen version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core pipeline logic (not for external import)
//       config/    : YAML configuration
//       order/     : Order row model and form parsing
//       normalize/ : Phone and quantity normalization
//       source/    : Spreadsheet and document-store order sources
//       label/     : Label report rendering
//       pipeline/  : Fetch -> render -> commit orchestration
//       logging/   : Structured logging setup
//
// =============================================================================

package main

import (
	"github.com/jejufarm/tangerine-labels/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package.
func main() {
	cmd.Execute()
}
