package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceMarshalFixesMoneyPlaces(t *testing.T) {
	inv := Invoice{
		ID:       7,
		Number:   "INV-00007",
		Subtotal: decimal.RequireFromString("30"),
		Tax:      decimal.RequireFromString("1.5"),
		Total:    decimal.RequireFromString("31.5"),
		Status:   InvoiceStatusUnpaid,
		Items: []InvoiceItem{
			{ID: 8, InvoiceID: 7, Quantity: 3, UnitPrice: decimal.RequireFromString("10"), LineTotal: decimal.RequireFromString("30")},
		},
	}

	data, err := json.Marshal(inv)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "30.00", got["subtotal"])
	assert.Equal(t, "1.50", got["tax"])
	assert.Equal(t, "31.50", got["total"])
	assert.Equal(t, "INV-00007", got["number"])
	assert.Equal(t, "unpaid", got["status"])

	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "30.00", item["line_total"])
	assert.Equal(t, "10", item["unit_price"])
	assert.NotContains(t, item, "Position")
}

func TestInvoiceMarshalZeroValue(t *testing.T) {
	data, err := json.Marshal(Invoice{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"subtotal":"0.00"`)
	assert.Contains(t, string(data), `"tax":"0.00"`)
	assert.Contains(t, string(data), `"total":"0.00"`)
}

func TestInvoiceRoundTripsThroughJSON(t *testing.T) {
	data, err := json.Marshal(Invoice{Total: decimal.RequireFromString("43.17")})
	require.NoError(t, err)

	var back Invoice
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "43.17", back.Total.StringFixed(2))
}
