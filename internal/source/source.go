// =============================================================================
// Tangerine Label Generator - Order Sources
// =============================================================================
//
// This package contains the backends that orders are fetched from and
// confirmed against. Two backends exist:
//   - SheetSource    : an XLSX workbook of order form responses (sheet.go)
//   - DocumentSource : a SQLite-backed document store (document.go)
//
// Both implement the Source interface with identical semantics and differ
// only in the identifier granularity used for commit: the sheet writes the
// confirmation marker one cell at a time by absolute row number, while the
// document store issues a single bulk update over a contiguous id range.
//
// CHECKPOINT:
//   There is no persisted cursor. The boundary between processed and new rows
//   is derived on every fetch by scanning for the LAST row whose marker field
//   equals the reserved sentinel; every row after it is new. A row's marker is
//   written durably before the call returns, so a re-fetch after a partial
//   commit recomputes the boundary from marker state and never returns an
//   already-marked row.
//
// =============================================================================

package source

import (
	"fmt"
	"strings"

	"github.com/jejufarm/tangerine-labels/internal/order"
)

// =============================================================================
// SOURCE INTERFACE
// =============================================================================

// Source is the capability contract of an order backend.
//
// FetchNew loads all rows, validates the schema, computes the checkpoint, and
// returns every row after it in original order. It records the identifiers of
// the returned rows so that CommitConfirmed can address them; that state is
// scoped to one fetch/commit pair and invalidated by the next fetch.
//
// CommitConfirmed writes the confirmation sentinel into the marker field of
// every row returned by the immediately preceding FetchNew, by stored
// identifier, never by content. With no prior fetch, or a fetch that returned
// zero rows, it is a no-op. A partial-write failure is fatal for the run and
// already-written markers are not rolled back (at-least-once marking).
type Source interface {
	FetchNew() ([]order.Row, error)
	CommitConfirmed() error
	Close() error
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// UnavailableError reports an auth, connection, or backend I/O failure.
// It is fatal and aborts the run before any output.
type UnavailableError struct {
	// Op is the operation that failed, e.g. "open workbook".
	Op string

	// Err is the underlying backend error.
	Err error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("order source unavailable: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnavailableError) Unwrap() error { return e.Err }

// SchemaError reports that the backend is missing required fields.
// It is fatal and aborts the run before the fetch completes.
type SchemaError struct {
	// Missing are the names of the required fields that were not found.
	Missing []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("order source is missing required fields: %s", strings.Join(e.Missing, ", "))
}

// =============================================================================
// CHECKPOINT
// =============================================================================

// checkpoint returns the index of the last marker equal to the confirmation
// sentinel, or -1 if no marker matches. The comparison is exact string
// equality against the one reserved value.
func checkpoint(markers []string) int {
	last := -1
	for i, marker := range markers {
		if marker == order.ConfirmedMarker {
			last = i
		}
	}
	return last
}

// missingFields returns the required fields absent from the given header set,
// preserving required-field order.
func missingFields(required []string, present map[string]bool) []string {
	var missing []string
	for _, field := range required {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	return missing
}
