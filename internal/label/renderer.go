// =============================================================================
// Tangerine Label Generator - Label Renderer
// =============================================================================
//
// This module renders a batch of new order rows into the human-readable
// shipping label report:
//   1. Sort rows stably by timestamp ascending.
//   2. Partition into calendar-date sections, ascending.
//   3. Within a date, group rows by the raw sender (name, address, phone)
//      tuple in first-seen order and emit one sender block per group.
//   4. Emit recipient and product blocks per row, accumulating running totals
//      per box size.
//   5. Close with a fixed summary block: box counts, amounts per size, and
//      the grand total with thousands-separated won figures.
//
// A malformed field never aborts a render; blanks substitute. Only the
// checkpoint commit boundary is atomic per run, not per row.
//
// =============================================================================

package label

import (
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jejufarm/tangerine-labels/internal/config"
	"github.com/jejufarm/tangerine-labels/internal/normalize"
	"github.com/jejufarm/tangerine-labels/internal/order"
)

// EmptyBatchMessage is returned for a render with no rows. The caller prints
// it verbatim; an empty batch is not an error.
const EmptyBatchMessage = "새로운 주문이 없습니다."

// Size tokens matched as substrings of the product selection text, in match
// order: a value containing both tokens counts as 5kg.
const (
	token5kg  = "5kg"
	token10kg = "10kg"
)

// =============================================================================
// RENDERER STRUCTURE
// =============================================================================

// Renderer produces the label report for a batch of orders.
type Renderer struct {
	prices   config.Prices
	fallback config.Sender
	logger   *slog.Logger
	printer  *message.Printer

	// Running totals, reset at the start of every render.
	total5kg  int
	total10kg int
}

// New creates a Renderer with the given unit prices and fallback sender.
func New(prices config.Prices, fallback config.Sender, logger *slog.Logger) *Renderer {
	return &Renderer{
		prices:   prices,
		fallback: fallback,
		logger:   logger,
		printer:  message.NewPrinter(language.Korean),
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// Render formats the batch into the label report. The input slice is not
// modified; rendering is safe to repeat for the same batch.
func (r *Renderer) Render(rows []order.Row) string {
	if len(rows) == 0 {
		return EmptyBatchMessage
	}

	r.total5kg = 0
	r.total10kg = 0

	sorted := make([]order.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var b strings.Builder
	for _, section := range partitionByDate(sorted) {
		b.WriteString("=== " + section.date + " ===\n")

		for i, group := range groupBySender(section.rows) {
			if i > 0 {
				b.WriteString("\n")
			}
			r.writeSenderGroup(&b, group)
		}

		b.WriteString(strings.Repeat("=", 39) + "\n\n")
	}

	r.writeSummary(&b)
	return b.String()
}

// writeSenderGroup emits one sender block followed by the recipient and
// product blocks of every row in the group, in original relative order.
func (r *Renderer) writeSenderGroup(b *strings.Builder, group senderGroup) {
	b.WriteString("보내는사람\n")

	first := group.rows[0]
	if validSender(first) {
		b.WriteString(first.SenderAddress + " " + first.SenderName + " " +
			normalize.FormatPhone(first.SenderPhone) + "\n\n")
	} else {
		b.WriteString(r.fallback.Address + " " + r.fallback.Name + " " + r.fallback.Phone + "\n\n")
	}

	for _, row := range group.rows {
		r.writeRecipient(b, row)
	}
}

// writeRecipient emits the recipient block and the product block for one row,
// adding the resolved quantity to the matching running total. A product
// selection with neither size token gets no product line and no total
// contribution.
func (r *Renderer) writeRecipient(b *strings.Builder, row order.Row) {
	b.WriteString("받는사람\n")
	b.WriteString(row.RecipientAddress + " " + row.RecipientName + " " +
		normalize.FormatPhone(row.RecipientPhone) + "\n")

	b.WriteString("주문상품\n")
	quantity := normalize.ResolveQuantity(row, r.logger)

	switch {
	case strings.Contains(row.ProductSelection, token5kg):
		r.total5kg += quantity
		b.WriteString(r.printer.Sprintf("5kg / %d박스\n\n", quantity))
	case strings.Contains(row.ProductSelection, token10kg):
		r.total10kg += quantity
		b.WriteString(r.printer.Sprintf("10kg / %d박스\n\n", quantity))
	default:
		if r.logger != nil {
			r.logger.Warn("order has no recognizable box size", "product", row.ProductSelection)
		}
	}
}

// writeSummary emits the order summary with thousands-separated won figures.
func (r *Renderer) writeSummary(b *strings.Builder) {
	amount5kg := r.total5kg * r.prices.Box5kg
	amount10kg := r.total10kg * r.prices.Box10kg

	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString("주문 요약\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	b.WriteString(r.printer.Sprintf("5kg 주문: %d박스 (%d원)\n", r.total5kg, amount5kg))
	b.WriteString(r.printer.Sprintf("10kg 주문: %d박스 (%d원)\n", r.total10kg, amount10kg))
	b.WriteString(strings.Repeat("-", 20) + "\n")
	b.WriteString(r.printer.Sprintf("총 주문금액: %d원\n", amount5kg+amount10kg))
}

// Totals returns the running totals of the last render as (5kg, 10kg) box
// counts. Exposed for reporting; never persisted.
func (r *Renderer) Totals() (int, int) {
	return r.total5kg, r.total10kg
}

// =============================================================================
// GROUPING
// =============================================================================

type dateSection struct {
	date string // YYYY-MM-DD
	rows []order.Row
}

// partitionByDate splits timestamp-sorted rows into per-date sections.
// The input is already ascending, so sections come out in date order.
func partitionByDate(sorted []order.Row) []dateSection {
	var sections []dateSection
	for _, row := range sorted {
		date := row.Date().Format("2006-01-02")
		if len(sections) == 0 || sections[len(sections)-1].date != date {
			sections = append(sections, dateSection{date: date})
		}
		last := &sections[len(sections)-1]
		last.rows = append(last.rows, row)
	}
	return sections
}

type senderGroup struct {
	rows []order.Row
}

// groupBySender groups rows by the raw sender-identity tuple, preserving the
// first-seen order of distinct tuples. This is a stable group-by, not a sort:
// two senders interleaved in time stay two separate blocks in first-seen
// order. The key uses the raw, untrimmed fields on purpose, matching how the
// form data was grouped historically.
func groupBySender(rows []order.Row) []senderGroup {
	groups := make(map[string]int)
	var ordered []senderGroup

	for _, row := range rows {
		key := row.SenderName + "\x00" + row.SenderAddress + "\x00" + row.SenderPhone
		idx, seen := groups[key]
		if !seen {
			idx = len(ordered)
			groups[key] = idx
			ordered = append(ordered, senderGroup{})
		}
		ordered[idx].rows = append(ordered[idx].rows, row)
	}
	return ordered
}

// validSender reports whether the row carries a complete sender identity:
// name, address, and phone all non-blank after trimming.
func validSender(row order.Row) bool {
	return strings.TrimSpace(row.SenderName) != "" &&
		strings.TrimSpace(row.SenderAddress) != "" &&
		strings.TrimSpace(row.SenderPhone) != ""
}
