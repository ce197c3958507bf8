// =============================================================================
// Tangerine Label Generator - Document Store Source
// =============================================================================
//
// DocumentSource keeps one order per document in a SQLite table. The document
// body is a JSON object of form fields; the marker lives in its own column so
// confirmation is a plain column update. Documents are read in id order, and
// commit is a single bulk update spanning the contiguous id range of the
// fetched batch. The bulk form is only safe because documents are fetched and
// consumed in one monotonic pass with no concurrent writers assumed.
//
// =============================================================================

package source

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/jejufarm/tangerine-labels/internal/order"
)

// DocumentSource is the SQLite-backed order source.
type DocumentSource struct {
	db       *sql.DB
	table    string
	path     string
	required []string
	logger   *slog.Logger

	// Id range of the batch returned by the last fetch.
	firstID int64
	lastID  int64
	fetched bool
}

// OpenDocumentSource connects to the document store, creating the database
// file and the table if they do not exist yet.
func OpenDocumentSource(path, table string, required []string, logger *slog.Logger) (*DocumentSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &UnavailableError{Op: "open database", Err: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, &UnavailableError{Op: fmt.Sprintf("apply pragma %q", pragma), Err: execErr}
		}
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
        id     INTEGER PRIMARY KEY AUTOINCREMENT,
        marker TEXT NOT NULL DEFAULT '',
        fields TEXT NOT NULL
    )`, table)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &UnavailableError{Op: "create table", Err: err}
	}

	return &DocumentSource{
		db:       db,
		table:    table,
		path:     path,
		required: required,
		logger:   logger,
	}, nil
}

// FetchNew implements Source.
func (s *DocumentSource) FetchNew() ([]order.Row, error) {
	s.fetched = false

	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, marker, fields FROM %q ORDER BY id`, s.table))
	if err != nil {
		return nil, &UnavailableError{Op: "read documents", Err: err}
	}
	defer rows.Close()

	type document struct {
		id     int64
		marker string
		fields map[string]any
	}
	var docs []document
	var markers []string
	for rows.Next() {
		var doc document
		var body []byte
		if err := rows.Scan(&doc.id, &doc.marker, &body); err != nil {
			return nil, &UnavailableError{Op: "scan document", Err: err}
		}
		if err := json.Unmarshal(body, &doc.fields); err != nil {
			return nil, &UnavailableError{Op: fmt.Sprintf("decode document %d", doc.id), Err: err}
		}
		docs = append(docs, doc)
		markers = append(markers, doc.marker)
	}
	if err := rows.Err(); err != nil {
		return nil, &UnavailableError{Op: "iterate documents", Err: err}
	}

	last := checkpoint(markers)

	var newRows []order.Row
	for i := last + 1; i < len(docs); i++ {
		doc := docs[i]

		present := make(map[string]bool, len(doc.fields))
		fields := make(map[string]string, len(doc.fields))
		for name, value := range doc.fields {
			present[name] = true
			fields[name] = order.CoerceString(value)
		}
		present[order.FieldMarker] = true
		fields[order.FieldMarker] = doc.marker
		if missing := missingFields(s.required, present); len(missing) > 0 {
			return nil, &SchemaError{Missing: missing}
		}

		parsed, err := order.FromFields(fields, doc.id)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc.id, err)
		}
		newRows = append(newRows, parsed)
	}

	if len(newRows) > 0 {
		s.firstID = newRows[0].SourceID
		s.lastID = newRows[len(newRows)-1].SourceID
		s.fetched = true
	}

	if s.logger != nil {
		s.logger.Debug("fetched new orders from document store",
			"path", s.path, "table", s.table, "new", len(newRows), "checkpoint", last)
	}

	return newRows, nil
}

// CommitConfirmed implements Source. One bulk update covers the whole batch.
func (s *DocumentSource) CommitConfirmed() error {
	if !s.fetched {
		return nil
	}

	_, err := s.db.Exec(
		fmt.Sprintf(`UPDATE %q SET marker = ? WHERE id BETWEEN ? AND ?`, s.table),
		order.ConfirmedMarker, s.firstID, s.lastID,
	)
	if err != nil {
		return &UnavailableError{Op: "mark documents", Err: err}
	}

	if s.logger != nil {
		s.logger.Info("confirmed orders in document store", "first_id", s.firstID, "last_id", s.lastID)
	}
	s.fetched = false
	return nil
}

// Close implements Source.
func (s *DocumentSource) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Insert appends documents to the store, unconfirmed. Used by the migrate
// command to copy spreadsheet rows into the document store.
func (s *DocumentSource) Insert(batch []map[string]string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, &UnavailableError{Op: "begin insert", Err: err}
	}

	stmt := fmt.Sprintf(`INSERT INTO %q (marker, fields) VALUES ('', ?)`, s.table)
	for i, fields := range batch {
		body, err := json.Marshal(fields)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("encode document %d: %w", i, err)
		}
		if _, err := tx.Exec(stmt, string(body)); err != nil {
			_ = tx.Rollback()
			return 0, &UnavailableError{Op: "insert document", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &UnavailableError{Op: "commit insert", Err: err}
	}
	return len(batch), nil
}
