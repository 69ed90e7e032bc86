// Package calc computes invoice line totals, aggregates and numbers.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
// Money is carried as decimal.Decimal and rounded half away from zero to
// two places at each step.
package calc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// NumberPrefix precedes the zero-padded sequence in generated invoice numbers.
	NumberPrefix = "INV-"
	// NumberWidth is the minimum number of sequence digits.
	NumberWidth = 5
	// MoneyPlaces is the number of fractional digits kept on monetary amounts.
	MoneyPlaces = 2
	// UnitPricePlaces is the number of fractional digits stored on item unit prices.
	UnitPricePlaces = 4
)

// TaxRate is the fixed value-added tax rate applied to every invoice subtotal.
var TaxRate = decimal.RequireFromString("0.05")

// Totals is the aggregate of an invoice's lines.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Round rounds an amount to MoneyPlaces, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// LineTotal returns round(unitPrice * quantity, 2). Negative or zero inputs
// propagate arithmetically.
func LineTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// Aggregate sums already-rounded line totals and derives tax and total.
// An empty input yields zeros.
func Aggregate(lineTotals []decimal.Decimal) Totals {
	sum := decimal.Zero
	for _, lt := range lineTotals {
		sum = sum.Add(lt)
	}
	subtotal := Round(sum)
	tax := Round(subtotal.Mul(TaxRate))
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    Round(subtotal.Add(tax)),
	}
}

// FormatNumber renders seq as INV- followed by at least five digits.
// Sequences wider than five digits are never truncated.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("%s%0*d", NumberPrefix, NumberWidth, seq)
}

// ParseNumber reports the sequence encoded in a number shaped like the ones
// FormatNumber produces. Anything else, including supplied numbers that only
// share the prefix, returns false.
func ParseNumber(number string) (int64, bool) {
	digits, ok := strings.CutPrefix(number, NumberPrefix)
	if !ok || len(digits) < NumberWidth || len(digits) > 18 {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

// ItemDraft is an unpriced line as submitted by a caller.
type ItemDraft struct {
	Description string
	ProductRef  *int64
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// Item is a priced line.
type Item struct {
	ItemDraft
	LineTotal decimal.Decimal
}

// Result is the outcome of Compute.
type Result struct {
	Number string
	Items  []Item
	Totals
}

// Compute prices every draft in order, aggregates the totals and resolves
// the invoice number: a non-blank suppliedNumber wins, otherwise nextSeq is
// formatted.
func Compute(drafts []ItemDraft, suppliedNumber string, nextSeq int64) Result {
	items := make([]Item, 0, len(drafts))
	lineTotals := make([]decimal.Decimal, 0, len(drafts))
	for _, d := range drafts {
		lt := LineTotal(d.UnitPrice, d.Quantity)
		items = append(items, Item{ItemDraft: d, LineTotal: lt})
		lineTotals = append(lineTotals, lt)
	}

	number := strings.TrimSpace(suppliedNumber)
	if number == "" {
		number = FormatNumber(nextSeq)
	}

	return Result{
		Number: number,
		Items:  items,
		Totals: Aggregate(lineTotals),
	}
}
