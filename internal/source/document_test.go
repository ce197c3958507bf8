package source

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jejufarm/tangerine-labels/internal/order"
)

// formFields builds one document body in the form-field mapping shape.
func formFields(timestamp, senderName string) map[string]string {
	return map[string]string{
		order.FieldTimestamp:        timestamp,
		order.FieldMarker:           "",
		order.FieldSenderName:       senderName,
		order.FieldSenderAddress:    "제주시 연동 1",
		order.FieldSenderPhone:      "010-1234-5678",
		order.FieldRecipientName:    "받는이",
		order.FieldRecipientAddress: "서울시 강남구",
		order.FieldRecipientPhone:   "010-9876-5432",
		order.FieldProductSelection: "감귤 10kg",
		order.FieldQuantity5kg:      "",
		order.FieldQuantity10kg:     "2",
	}
}

func openTestStore(t *testing.T) *DocumentSource {
	t.Helper()
	src, err := OpenDocumentSource(filepath.Join(t.TempDir(), "orders.db"), "orders", order.RequiredFields(), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func TestDocumentFetchAndCommit(t *testing.T) {
	src := openTestStore(t)

	_, err := src.Insert([]map[string]string{
		formFields("2026. 1. 10 오전 10:30:00", "김철수"),
		formFields("2026. 1. 10 오후 1:00:00", "이영희"),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := src.FetchNew()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].SourceID != 1 || rows[1].SourceID != 2 {
		t.Fatalf("wrong document ids: %d, %d", rows[0].SourceID, rows[1].SourceID)
	}
	if rows[0].Quantity10kg != "2" {
		t.Fatalf("field mapping lost: %+v", rows[0])
	}

	if err := src.CommitConfirmed(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err = src.FetchNew()
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want 0 rows after commit, got %d", len(rows))
	}
}

func TestDocumentRefetchAfterPartialCommit(t *testing.T) {
	src := openTestStore(t)

	if _, err := src.Insert([]map[string]string{
		formFields("2026. 1. 10 오전 10:30:00", "김철수"),
		formFields("2026. 1. 10 오후 1:00:00", "이영희"),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Simulate a bulk update that only reached the first document.
	if _, err := src.db.Exec(`UPDATE "orders" SET marker = ? WHERE id = 1`, order.ConfirmedMarker); err != nil {
		t.Fatalf("mark document: %v", err)
	}

	rows, err := src.FetchNew()
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(rows) != 1 || rows[0].SenderName != "이영희" {
		t.Fatalf("want only the unmarked document, got %+v", rows)
	}
}

func TestDocumentCheckpointSkipsEarlierUnmarked(t *testing.T) {
	// Checkpoint is the highest sentinel: an unmarked document BEFORE the
	// last confirmed one stays excluded, by design.
	src := openTestStore(t)

	if _, err := src.Insert([]map[string]string{
		formFields("2026. 1. 9 오전 9:00:00", "과거주문"),
		formFields("2026. 1. 10 오전 10:30:00", "김철수"),
		formFields("2026. 1. 10 오후 1:00:00", "이영희"),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := src.db.Exec(`UPDATE "orders" SET marker = ? WHERE id = 2`, order.ConfirmedMarker); err != nil {
		t.Fatalf("mark document: %v", err)
	}

	rows, err := src.FetchNew()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 1 || rows[0].SenderName != "이영희" {
		t.Fatalf("want only rows past the checkpoint, got %+v", rows)
	}
}

func TestDocumentCommitWithoutFetchIsNoop(t *testing.T) {
	src := openTestStore(t)
	if err := src.CommitConfirmed(); err != nil {
		t.Fatalf("commit without fetch: %v", err)
	}
}

func TestDocumentCommitAfterEmptyFetchIsNoop(t *testing.T) {
	src := openTestStore(t)
	if _, err := src.FetchNew(); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := src.CommitConfirmed(); err != nil {
		t.Fatalf("commit after empty fetch: %v", err)
	}
}

func TestDocumentSchemaError(t *testing.T) {
	src := openTestStore(t)

	fields := formFields("2026. 1. 10 오전 10:30:00", "김철수")
	delete(fields, order.FieldProductSelection)
	delete(fields, order.FieldQuantity5kg)
	if _, err := src.Insert([]map[string]string{fields}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, err := src.FetchNew()
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("want *SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 2 {
		t.Fatalf("wrong missing set: %v", schemaErr.Missing)
	}
}

func TestDocumentNumericFieldsCoerced(t *testing.T) {
	src := openTestStore(t)

	if _, err := src.Insert([]map[string]string{
		formFields("2026. 1. 10 오전 10:30:00", "김철수"),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// A document written by another tool may carry numeric JSON values.
	if _, err := src.db.Exec(
		`UPDATE "orders" SET fields = json_set(fields, '$."`+order.FieldSenderPhone+`"', 1012345678)`,
	); err != nil {
		t.Fatalf("rewrite field: %v", err)
	}

	rows, err := src.FetchNew()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rows[0].SenderPhone != "1012345678" {
		t.Fatalf("numeric field coerced to %q", rows[0].SenderPhone)
	}
}
