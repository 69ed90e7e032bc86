package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
)

// MarshalJSON renders money fields with exactly two decimals, e.g. "30.00".
func (i Invoice) MarshalJSON() ([]byte, error) {
	type plain Invoice
	return json.Marshal(struct {
		plain
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	}{
		plain:    plain(i),
		Subtotal: money(i.Subtotal),
		Tax:      money(i.Tax),
		Total:    money(i.Total),
	})
}

// MarshalJSON renders line_total with exactly two decimals. unit_price keeps its own scale.
func (it InvoiceItem) MarshalJSON() ([]byte, error) {
	type plain InvoiceItem
	return json.Marshal(struct {
		plain
		LineTotal string `json:"line_total"`
	}{
		plain:     plain(it),
		LineTotal: money(it.LineTotal),
	})
}

func money(d decimal.Decimal) string {
	return d.StringFixed(calc.MoneyPlaces)
}
