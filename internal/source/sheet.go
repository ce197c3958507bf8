// =============================================================================
// Tangerine Label Generator - Spreadsheet Source
// =============================================================================
//
// SheetSource reads order form responses from an XLSX workbook. Row 1 is the
// header row; data rows follow. The marker column cell of each fetched row is
// written individually on commit, addressed by absolute row number, and the
// workbook is saved after every write so each marker is durable before the
// next one is attempted.
//
// =============================================================================

package source

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jejufarm/tangerine-labels/internal/order"
)

// SheetSource is the spreadsheet-backed order source.
type SheetSource struct {
	path      string
	sheetName string
	required  []string
	logger    *slog.Logger

	// State scoped to one fetch/commit pair.
	file      *excelize.File
	sheet     string
	markerCol int     // 1-based column of the marker field
	pending   []int64 // absolute 1-based row numbers returned by the last fetch
}

// NewSheetSource creates a spreadsheet source for the given workbook.
// The sheetName may be empty to use the first worksheet.
func NewSheetSource(path, sheetName string, required []string, logger *slog.Logger) *SheetSource {
	return &SheetSource{
		path:      path,
		sheetName: sheetName,
		required:  required,
		logger:    logger,
	}
}

// FetchNew implements Source.
func (s *SheetSource) FetchNew() ([]order.Row, error) {
	// A new fetch invalidates any previously remembered rows.
	s.pending = nil
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &UnavailableError{Op: "open workbook", Err: err}
	}

	sheet := s.sheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		_ = f.Close()
		return nil, &UnavailableError{Op: "select worksheet", Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, &UnavailableError{Op: "read rows", Err: err}
	}
	if len(rows) == 0 {
		_ = f.Close()
		return nil, &SchemaError{Missing: s.required}
	}

	// Map header names to 0-based column indexes and validate the schema.
	header := rows[0]
	columns := make(map[string]int, len(header))
	present := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
		present[name] = true
	}
	if missing := missingFields(s.required, present); len(missing) > 0 {
		_ = f.Close()
		return nil, &SchemaError{Missing: missing}
	}

	// Collect markers over all data rows and derive the checkpoint.
	// Fully empty trailing rows are skipped, keeping row numbers intact.
	markerIdx := columns[order.FieldMarker]
	type dataRow struct {
		cells   []string
		rowNum  int64 // absolute 1-based sheet row
		skipped bool
	}
	data := make([]dataRow, 0, len(rows)-1)
	markers := make([]string, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := dataRow{cells: rows[i], rowNum: int64(i + 1)}
		if rowEmpty(rows[i]) {
			row.skipped = true
		} else {
			markers = append(markers, cell(rows[i], markerIdx))
		}
		data = append(data, row)
	}

	// Walk past the checkpoint, counting only non-empty rows, and build the
	// new batch. Timestamps are parsed here; a bad one fails the whole fetch.
	last := checkpoint(markers)
	var newRows []order.Row
	seen := -1
	for _, row := range data {
		if row.skipped {
			continue
		}
		seen++
		if seen <= last {
			continue
		}

		fields := make(map[string]string, len(s.required))
		for _, name := range s.required {
			fields[name] = cell(row.cells, columns[name])
		}
		parsed, err := order.FromFields(fields, row.rowNum)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("row %d: %w", row.rowNum, err)
		}
		newRows = append(newRows, parsed)
		s.pending = append(s.pending, row.rowNum)
	}

	s.file = f
	s.sheet = sheet
	s.markerCol = markerIdx + 1

	if s.logger != nil {
		s.logger.Debug("fetched new orders from workbook",
			"path", s.path, "sheet", sheet, "new", len(newRows), "checkpoint", last)
	}

	return newRows, nil
}

// CommitConfirmed implements Source. The workbook is saved after every cell
// write so a failure partway through leaves the earlier markers durable.
func (s *SheetSource) CommitConfirmed() error {
	if s.file == nil || len(s.pending) == 0 {
		return nil
	}

	for _, rowNum := range s.pending {
		cellName, err := excelize.CoordinatesToCellName(s.markerCol, int(rowNum))
		if err != nil {
			return &UnavailableError{Op: fmt.Sprintf("address row %d", rowNum), Err: err}
		}
		if err := s.file.SetCellValue(s.sheet, cellName, order.ConfirmedMarker); err != nil {
			return &UnavailableError{Op: fmt.Sprintf("mark row %d", rowNum), Err: err}
		}
		if err := s.file.Save(); err != nil {
			return &UnavailableError{Op: fmt.Sprintf("save after marking row %d", rowNum), Err: err}
		}
	}

	if s.logger != nil {
		s.logger.Info("confirmed orders in workbook", "rows", len(s.pending))
	}
	s.pending = nil
	return nil
}

// Close implements Source.
func (s *SheetSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// cell returns the cell value at idx, or "" past the row end.
// Short rows are common: excelize drops trailing empty cells.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// rowEmpty checks if a row contains only blank cells.
func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
