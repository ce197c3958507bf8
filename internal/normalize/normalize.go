// =============================================================================
// Tangerine Label Generator - Field Normalization
// =============================================================================
//
// This package contains the pure normalization rules for the noisy free-text
// fields of the order form:
//   - Phone numbers: recover digits mangled by spreadsheet numeric coercion
//     and format them as Korean mobile numbers.
//   - Quantities: extract an order quantity from free text like "3박스".
//
// Both normalizers are forgiving. A value that matches no rule is passed
// through (phone) or replaced by a default (quantity); a malformed field must
// never abort a batch, only the checkpoint commit boundary is atomic.
//
// =============================================================================

package normalize

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/jejufarm/tangerine-labels/internal/order"
)

// =============================================================================
// PHONE NUMBERS
// =============================================================================

// FormatPhone canonicalizes a phone number from the order form.
//
// RULES (applied in order):
//  1. Blank input returns the empty string.
//  2. All non-digit characters are stripped.
//  3. Exactly 10 digits starting with "10" gain a leading "0". This recovers
//     the zero dropped when a spreadsheet coerces the cell to a number.
//  4. Exactly 11 digits starting with "010" are formatted as XXX-XXXX-XXXX.
//  5. Otherwise, if the ORIGINAL text minus hyphens is 11 characters long and
//     contained exactly two hyphens, it is already formatted; return it as is.
//  6. Anything else is returned verbatim for a human to fix.
func FormatPhone(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	digits := digitsOnly(raw)

	if len(digits) == 10 && strings.HasPrefix(digits, "10") {
		digits = "0" + digits
	}

	if len(digits) == 11 && strings.HasPrefix(digits, "010") {
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	}

	if len(strings.ReplaceAll(raw, "-", "")) == 11 && strings.Count(raw, "-") == 2 {
		return raw
	}

	return raw
}

// =============================================================================
// QUANTITIES
// =============================================================================

// ResolveQuantity determines the shipped box count for a row.
//
// The 5kg quantity field is inspected first; if it is non-blank and contains
// at least one digit, the digits-only substring is parsed as the quantity.
// Otherwise the 10kg field is inspected with the same rule. Rows where neither
// field yields a digit sequence default to one box.
//
// This function never fails; a parse error is logged and falls back to 1.
func ResolveQuantity(row order.Row, logger *slog.Logger) int {
	for _, field := range []string{row.Quantity5kg, row.Quantity10kg} {
		if strings.TrimSpace(field) == "" {
			continue
		}
		digits := digitsOnly(field)
		if digits == "" {
			continue
		}
		qty, err := strconv.Atoi(digits)
		if err != nil {
			if logger != nil {
				logger.Warn("unparseable quantity, defaulting to 1", "value", field, "error", err)
			}
			return 1
		}
		return qty
	}
	return 1
}

// digitsOnly strips every non-ASCII-digit rune.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
