package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"github.com/smallbiznis/invoicepos/internal/providers/pdf"
)

var errPDFUnavailable = errors.New("pdf renderer is not configured")

// RenderPDF renders the invoice with the owning business' branding. Paid invoices render as receipts.
func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	if s.pdf == nil {
		return nil, errPDFUnavailable
	}

	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	business, err := s.businessSvc.GetByID(ctx, invoice.BusinessID.String())
	if err != nil {
		return nil, err
	}

	data := pdf.InvoiceData{
		BusinessName:    business.Name,
		BusinessAddress: []string{business.AddressLine1, business.AddressLine2},
		BusinessContact: joinNonEmpty(business.ContactNumber1, business.ContactNumber2),
		BusinessTRN:     business.TRN,
		LogoPath:        business.LogoPath,
		SignaturePath:   business.ManagerSignaturePath,
		InvoiceNumber:   invoice.Number,
		IssueDate:       invoice.Date.Format(invoicedomain.DateLayout),
		Status:          string(invoice.Status),
		Notes:           invoice.Notes,
		Subtotal:        formatMoney(invoice.Subtotal),
		TaxLabel:        fmt.Sprintf("VAT %s%%", calc.TaxRate.Shift(2).String()),
		Tax:             formatMoney(invoice.Tax),
		Total:           formatMoney(invoice.Total),
	}
	if invoice.DueDate != nil {
		data.DueDate = invoice.DueDate.Format(invoicedomain.DateLayout)
	}
	if invoice.CustomerID != nil {
		customer, err := s.customerSvc.GetByID(ctx, invoice.CustomerID.String())
		if err != nil {
			return nil, err
		}
		data.BillToName = customer.Name
		data.BillToContact = customer.Contact
		data.BillToTRN = customer.TRN
	}
	for _, item := range invoice.Items {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: item.Description,
			Qty:         item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			Amount:      formatMoney(item.LineTotal),
		})
	}

	var r io.Reader
	if invoice.Status == invoicedomain.InvoiceStatusPaid {
		r, err = s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{InvoiceData: data})
	} else {
		r, err = s.pdf.GenerateInvoice(ctx, data)
	}
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", invoice.Number, err)
	}
	return io.ReadAll(r)
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(calc.MoneyPlaces)
}

func joinNonEmpty(values ...string) string {
	out := ""
	for _, v := range values {
		if v == "" {
			continue
		}
		if out != "" {
			out += " / "
		}
		out += v
	}
	return out
}
