package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is one line of a report's work log. Coefficient <= 0 means the line
// never had an explicit multiplier; resolution falls back to the catalog
// item's coefficient, then to 1.
type Entry struct {
	ItemID      int64   `json:"item_id"`
	Quantity    int     `json:"quantity"`
	Coefficient float64 `json:"coefficient,omitempty"`
}

type WorkLog []Entry

// Filtered returns the log without zero and negative quantities. Those lines
// must never persist.
func (wl WorkLog) Filtered() WorkLog {
	out := make(WorkLog, 0, len(wl))
	for _, e := range wl {
		if e.Quantity > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Fingerprint is an order-independent identity of the billed content: filter
// zero quantities, project to (item, quantity), sort, serialize. Two logs
// with equal fingerprints bill the same work, so the editor treats them as
// "nothing changed server-side".
func (wl WorkLog) Fingerprint() string {
	filtered := wl.Filtered()

	type line struct {
		itemID   int64
		quantity int
	}
	// Duplicate item lines collapse into one; the split between them is a
	// presentation detail, not billed content.
	totals := make(map[int64]int, len(filtered))
	for _, e := range filtered {
		totals[e.ItemID] += e.Quantity
	}

	lines := make([]line, 0, len(totals))
	for id, qty := range totals {
		lines = append(lines, line{itemID: id, quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].itemID < lines[j].itemID })

	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "%d:%d", l.itemID, l.quantity)
	}
	return sb.String()
}

// PriceInfo is the catalog data needed to bill one item.
type PriceInfo struct {
	Price       int64
	Coefficient float64
}

// PriceResolver answers price lookups during earnings computation.
type PriceResolver interface {
	PriceFor(itemID int64) (PriceInfo, bool)
}

// PriceTable is an in-memory PriceResolver.
type PriceTable map[int64]PriceInfo

func (t PriceTable) PriceFor(itemID int64) (PriceInfo, bool) {
	info, ok := t[itemID]
	return info, ok
}

// ResolveCoefficient picks the multiplier for a line: the line's own value if
// set, else the catalog item's, else 1.
func ResolveCoefficient(entry Entry, info PriceInfo) float64 {
	if entry.Coefficient > 0 {
		return entry.Coefficient
	}
	if info.Coefficient > 0 {
		return info.Coefficient
	}
	return 1
}

// Earnings computes round(Σ price × coefficient × quantity) over the filtered
// log. A line whose item vanished from the catalog contributes zero but is
// kept for display. Decimal arithmetic keeps coefficient rounding exact.
func (wl WorkLog) Earnings(prices PriceResolver) int64 {
	total := decimal.Zero
	for _, entry := range wl.Filtered() {
		info, ok := prices.PriceFor(entry.ItemID)
		if !ok {
			continue
		}
		coefficient := ResolveCoefficient(entry, info)
		line := decimal.NewFromInt(info.Price).
			Mul(decimal.NewFromFloat(coefficient)).
			Mul(decimal.NewFromInt(int64(entry.Quantity)))
		total = total.Add(line)
	}
	return total.Round(0).IntPart()
}
