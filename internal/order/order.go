// =============================================================================
// Tangerine Label Generator - Order Data Model
// =============================================================================
//
// This package contains the shared order row model used across the pipeline.
// Types defined here are used by:
//   - source (fetching rows from a backend)
//   - label (rendering shipping labels)
//   - pipeline (orchestration)
//
// The order form is a Korean-language Google Form export, so the canonical
// column headers are Korean. Header names are centralized here so the source
// backends, the renderer, and the configuration all agree on them.
//
// =============================================================================

package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// COLUMN HEADERS
// =============================================================================

// Canonical column headers of the order form. Every backend row must carry all
// of these fields; a missing header is a schema error at fetch time.
const (
	FieldTimestamp        = "타임스탬프"
	FieldMarker           = "비고"
	FieldSenderName       = "보내는분 성함"
	FieldSenderAddress    = "보내는분 주소 (도로명 주소로 부탁드려요)"
	FieldSenderPhone      = "보내는분 연락처 (핸드폰번호)"
	FieldRecipientName    = "받으실분 성함"
	FieldRecipientAddress = "받으실분 주소 (도로명 주소로 부탁드려요)"
	FieldRecipientPhone   = "받으실분 연락처 (핸드폰번호)"
	FieldProductSelection = "상품 선택"
	FieldQuantity5kg      = "5kg 수량"
	FieldQuantity10kg     = "10kg 수량"
)

// ConfirmedMarker is the reserved sentinel value written into the marker field
// of a processed row. Checkpoint detection compares against it with exact
// string equality; no case folding, no synonyms.
const ConfirmedMarker = "확인"

// RequiredFields returns the default required-field set, in form order.
func RequiredFields() []string {
	return []string{
		FieldTimestamp,
		FieldMarker,
		FieldSenderName,
		FieldSenderAddress,
		FieldSenderPhone,
		FieldRecipientName,
		FieldRecipientAddress,
		FieldRecipientPhone,
		FieldProductSelection,
		FieldQuantity5kg,
		FieldQuantity10kg,
	}
}

// =============================================================================
// ROW STRUCTURE
// =============================================================================

// Row represents a single tangerine-box order fetched from a backend.
type Row struct {
	// Timestamp is the submission time of the order, parsed from the form's
	// Korean timestamp format.
	Timestamp time.Time

	// Marker is the raw content of the marker column. A value equal to
	// ConfirmedMarker means the row was already processed in a previous run.
	Marker string

	// Sender fields are kept raw (untrimmed, unnormalized). The renderer
	// groups rows by the raw tuple, matching the observed form behavior.
	SenderName    string
	SenderAddress string
	SenderPhone   string

	RecipientName    string
	RecipientAddress string
	RecipientPhone   string

	// ProductSelection is the free-text product choice. Box size is determined
	// by substring match against the "5kg"/"10kg" tokens.
	ProductSelection string

	// Quantity5kg and Quantity10kg are the raw quantity cells. Exactly one of
	// them is meaningful per row, selected by the size token found in
	// ProductSelection.
	Quantity5kg  string
	Quantity10kg string

	// SourceID is the backend identifier of this row: the absolute 1-based
	// sheet row number for the spreadsheet backend, or the document id for the
	// document store. Commit addresses rows by this identifier, never by
	// content.
	SourceID int64
}

// FromFields builds a Row from a field-name -> raw-value mapping as returned
// by a backend. The timestamp field is parsed here; a parse failure is fatal
// for the whole batch because rendering sorts by timestamp.
func FromFields(fields map[string]string, sourceID int64) (Row, error) {
	ts, err := ParseFormTimestamp(fields[FieldTimestamp])
	if err != nil {
		return Row{}, err
	}

	return Row{
		Timestamp:        ts,
		Marker:           fields[FieldMarker],
		SenderName:       fields[FieldSenderName],
		SenderAddress:    fields[FieldSenderAddress],
		SenderPhone:      fields[FieldSenderPhone],
		RecipientName:    fields[FieldRecipientName],
		RecipientAddress: fields[FieldRecipientAddress],
		RecipientPhone:   fields[FieldRecipientPhone],
		ProductSelection: fields[FieldProductSelection],
		Quantity5kg:      fields[FieldQuantity5kg],
		Quantity10kg:     fields[FieldQuantity10kg],
		SourceID:         sourceID,
	}, nil
}

// Date returns the calendar date of the order as a midnight time value.
// Rows are partitioned by this value when rendering.
func (r Row) Date() time.Time {
	y, m, d := r.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.Timestamp.Location())
}

// Confirmed reports whether this row carries the processed sentinel.
func (r Row) Confirmed() bool {
	return r.Marker == ConfirmedMarker
}

// =============================================================================
// TIMESTAMP PARSING
// =============================================================================

// TimestampError is returned when a row's timestamp cannot be parsed.
// It aborts the whole batch: rendering requires comparable timestamps, so a
// bad row must not be skipped silently.
type TimestampError struct {
	// Value is the raw timestamp text that failed to parse.
	Value string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *TimestampError) Error() string {
	return fmt.Sprintf("unparseable timestamp %q: %v", e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *TimestampError) Unwrap() error { return e.Err }

// ParseFormTimestamp parses the Korean timestamp format produced by the order
// form, e.g. "2024. 1. 15 오전 10:30:15". The 오전/오후 token selects AM/PM.
//
// PARAMETERS:
//   - raw: The raw timestamp text from the backend.
//
// RETURNS:
//   - The parsed time in the local location.
//   - A *TimestampError if the text does not match the form format.
func ParseFormTimestamp(raw string) (time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, &TimestampError{Value: raw, Err: fmt.Errorf("empty value")}
	}

	pm := strings.Contains(text, "오후")
	text = strings.ReplaceAll(text, "오전", "")
	text = strings.ReplaceAll(text, "오후", "")

	// After removing the AM/PM token the text is "YYYY. M. D  H:MM:SS".
	parts := strings.Fields(strings.ReplaceAll(text, ".", " "))
	if len(parts) != 4 {
		return time.Time{}, &TimestampError{Value: raw, Err: fmt.Errorf("expected date and time, got %d tokens", len(parts))}
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, &TimestampError{Value: raw, Err: err}
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, &TimestampError{Value: raw, Err: err}
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, &TimestampError{Value: raw, Err: err}
	}

	clock := strings.Split(parts[3], ":")
	if len(clock) != 3 {
		return time.Time{}, &TimestampError{Value: raw, Err: fmt.Errorf("malformed clock %q", parts[3])}
	}
	hour, err := strconv.Atoi(clock[0])
	if err != nil {
		return time.Time{}, &TimestampError{Value: raw, Err: err}
	}
	minute, err := strconv.Atoi(clock[1])
	if err != nil {
		return time.Time{}, &TimestampError{Value: raw, Err: err}
	}
	second, err := strconv.Atoi(clock[2])
	if err != nil {
		return time.Time{}, &TimestampError{Value: raw, Err: err}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, &TimestampError{Value: raw, Err: fmt.Errorf("field out of range")}
	}

	// The form writes 12-hour clocks: 오후 turns 1-11 into 13-23, and
	// 오전 12 is midnight.
	if pm && hour < 12 {
		hour += 12
	}
	if !pm && hour == 12 {
		hour = 0
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), nil
}

// =============================================================================
// VALUE COERCION
// =============================================================================

// CoerceString converts a backend cell value of any scalar type to its
// canonical text form. Spreadsheet and document backends may hand back phone
// numbers or quantities as numeric types; integral floats are printed without
// a decimal point so they behave identically to their text form.
func CoerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
