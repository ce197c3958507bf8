package source

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jejufarm/tangerine-labels/internal/order"
)

// formRow builds one workbook data row in required-field order.
func formRow(timestamp, marker, senderName string) []any {
	return []any{
		timestamp,
		marker,
		senderName,
		"제주시 연동 1",
		"010-1234-5678",
		"받는이",
		"서울시 강남구",
		"010-9876-5432",
		"감귤 5kg",
		"1",
		"",
	}
}

// writeWorkbook creates an XLSX fixture with the form header and data rows.
func writeWorkbook(t *testing.T, path string, dataRows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, 0, len(order.RequiredFields()))
	for _, name := range order.RequiredFields() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}

	for i := range dataRows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("address row: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &dataRows[i]); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestSheetFetchNewAfterCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	writeWorkbook(t, path, [][]any{
		formRow("2026. 1. 9 오전 9:00:00", order.ConfirmedMarker, "확인된분"),
		formRow("2026. 1. 10 오전 10:30:00", "", "김철수"),
		formRow("2026. 1. 10 오후 1:00:00", "", "이영희"),
	})

	src := NewSheetSource(path, "", order.RequiredFields(), nil)
	defer src.Close()

	rows, err := src.FetchNew()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 new rows, got %d", len(rows))
	}
	if rows[0].SenderName != "김철수" || rows[1].SenderName != "이영희" {
		t.Fatalf("wrong rows: %q, %q", rows[0].SenderName, rows[1].SenderName)
	}
	// Absolute sheet row numbers, header included.
	if rows[0].SourceID != 3 || rows[1].SourceID != 4 {
		t.Fatalf("wrong row numbers: %d, %d", rows[0].SourceID, rows[1].SourceID)
	}
}

func TestSheetCommitConfirmed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	writeWorkbook(t, path, [][]any{
		formRow("2026. 1. 10 오전 10:30:00", "", "김철수"),
		formRow("2026. 1. 10 오후 1:00:00", "", "이영희"),
	})

	src := NewSheetSource(path, "", order.RequiredFields(), nil)
	if _, err := src.FetchNew(); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := src.CommitConfirmed(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	src.Close()

	// The markers must be durable in the workbook.
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	for _, cell := range []string{"B2", "B3"} {
		got, err := f.GetCellValue(f.GetSheetName(0), cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != order.ConfirmedMarker {
			t.Fatalf("cell %s = %q, want %q", cell, got, order.ConfirmedMarker)
		}
	}

	// A fresh fetch finds nothing new.
	again := NewSheetSource(path, "", order.RequiredFields(), nil)
	defer again.Close()
	rows, err := again.FetchNew()
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want 0 rows after commit, got %d", len(rows))
	}
}

func TestSheetRefetchAfterPartialCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	writeWorkbook(t, path, [][]any{
		formRow("2026. 1. 10 오전 10:30:00", "", "김철수"),
		formRow("2026. 1. 10 오후 1:00:00", "", "이영희"),
	})

	// Simulate a commit that failed after marking the first of two rows.
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	if err := f.SetCellValue(f.GetSheetName(0), "B2", order.ConfirmedMarker); err != nil {
		t.Fatalf("mark row: %v", err)
	}
	if err := f.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	// The checkpoint is recomputed from marker state: only the unmarked row
	// comes back, never the marked one, never both.
	src := NewSheetSource(path, "", order.RequiredFields(), nil)
	defer src.Close()
	rows, err := src.FetchNew()
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(rows) != 1 || rows[0].SenderName != "이영희" {
		t.Fatalf("want only the unmarked row, got %+v", rows)
	}
}

func TestSheetSchemaError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []any{order.FieldTimestamp, order.FieldSenderName}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	f.Close()

	src := NewSheetSource(path, "", order.RequiredFields(), nil)
	defer src.Close()

	_, err := src.FetchNew()
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("want *SchemaError, got %v", err)
	}
	for _, missing := range schemaErr.Missing {
		if missing == order.FieldTimestamp || missing == order.FieldSenderName {
			t.Fatalf("present field %q reported missing", missing)
		}
	}
	if len(schemaErr.Missing) != len(order.RequiredFields())-2 {
		t.Fatalf("wrong missing set: %v", schemaErr.Missing)
	}
}

func TestSheetTimestampErrorIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	writeWorkbook(t, path, [][]any{
		formRow("2026. 1. 10 오전 10:30:00", "", "김철수"),
		formRow("언젠가", "", "이영희"),
	})

	src := NewSheetSource(path, "", order.RequiredFields(), nil)
	defer src.Close()

	_, err := src.FetchNew()
	var tsErr *order.TimestampError
	if !errors.As(err, &tsErr) {
		t.Fatalf("want *order.TimestampError, got %v", err)
	}
}

func TestSheetConfirmedRowsNotParsed(t *testing.T) {
	// A confirmed historical row with a mangled timestamp must not break the
	// run; only rows past the checkpoint are parsed.
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	writeWorkbook(t, path, [][]any{
		formRow("깨진 값", order.ConfirmedMarker, "확인된분"),
		formRow("2026. 1. 10 오전 10:30:00", "", "김철수"),
	})

	src := NewSheetSource(path, "", order.RequiredFields(), nil)
	defer src.Close()

	rows, err := src.FetchNew()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].SenderName != "김철수" {
		t.Fatalf("want the one new row, got %+v", rows)
	}
}

func TestSheetCommitWithoutFetchIsNoop(t *testing.T) {
	src := NewSheetSource(filepath.Join(t.TempDir(), "missing.xlsx"), "", order.RequiredFields(), nil)
	if err := src.CommitConfirmed(); err != nil {
		t.Fatalf("commit without fetch: %v", err)
	}
}

func TestSheetUnavailable(t *testing.T) {
	src := NewSheetSource(filepath.Join(t.TempDir(), "missing.xlsx"), "", order.RequiredFields(), nil)
	_, err := src.FetchNew()
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("want *UnavailableError, got %v", err)
	}
}
