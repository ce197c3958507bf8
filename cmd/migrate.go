// =============================================================================
// Tangerine Label Generator - Migrate Command
// =============================================================================
//
// This file defines the 'migrate' command, a one-shot utility that copies the
// unconfirmed order rows from the spreadsheet into the SQLite document store.
// Migrated documents are inserted unconfirmed so the document backend picks
// them up as new orders on its next run.
//
// The spreadsheet is read-only here: migration never writes confirmation
// markers back to the workbook.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jejufarm/tangerine-labels/internal/config"
	"github.com/jejufarm/tangerine-labels/internal/logging"
	"github.com/jejufarm/tangerine-labels/internal/order"
	"github.com/jejufarm/tangerine-labels/internal/source"
)

// migrateCmd represents the 'migrate' command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy new spreadsheet orders into the document store",
	Long: `The migrate command fetches every order row past the spreadsheet's
confirmation checkpoint and inserts it into the SQLite document store,
unconfirmed. Run it when switching backends from the workbook to the
document store.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

// init registers the migrate command.
func init() {
	rootCmd.AddCommand(migrateCmd)
}

// runMigrate copies new spreadsheet rows into the document store.
func runMigrate() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	sheet := source.NewSheetSource(cfg.Sheet.Path, cfg.Sheet.SheetName, cfg.RequiredFields, logger)
	defer sheet.Close()

	rows, err := sheet.FetchNew()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet orders: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("No orders to migrate")
		return nil
	}

	store, err := source.OpenDocumentSource(cfg.Document.Path, cfg.Document.Table, cfg.RequiredFields, logger)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer store.Close()

	batch := make([]map[string]string, len(rows))
	for i, row := range rows {
		batch[i] = documentFields(row)
	}

	inserted, err := store.Insert(batch)
	if err != nil {
		return fmt.Errorf("failed to insert orders: %w", err)
	}

	fmt.Printf("Inserted %d orders\n", inserted)
	return nil
}

// documentFields flattens a fetched row back into the form-field mapping
// stored in a document. The timestamp keeps the original form format so the
// document backend parses it the same way the spreadsheet backend did.
func documentFields(row order.Row) map[string]string {
	meridiem := "오전"
	hour := row.Timestamp.Hour()
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		meridiem = "오후"
	case hour > 12:
		meridiem = "오후"
		hour -= 12
	}

	timestamp := fmt.Sprintf("%d. %d. %d %s %d:%02d:%02d",
		row.Timestamp.Year(), int(row.Timestamp.Month()), row.Timestamp.Day(),
		meridiem, hour, row.Timestamp.Minute(), row.Timestamp.Second())

	return map[string]string{
		order.FieldTimestamp:        timestamp,
		order.FieldMarker:           "",
		order.FieldSenderName:       row.SenderName,
		order.FieldSenderAddress:    row.SenderAddress,
		order.FieldSenderPhone:      row.SenderPhone,
		order.FieldRecipientName:    row.RecipientName,
		order.FieldRecipientAddress: row.RecipientAddress,
		order.FieldRecipientPhone:   row.RecipientPhone,
		order.FieldProductSelection: row.ProductSelection,
		order.FieldQuantity5kg:      row.Quantity5kg,
		order.FieldQuantity10kg:     row.Quantity10kg,
	}
}
