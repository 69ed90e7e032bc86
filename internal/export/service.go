// Package export renders tenant data as CSV downloads.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	customerdomain "github.com/smallbiznis/invoicepos/internal/customer/domain"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"github.com/smallbiznis/invoicepos/internal/observability/metrics"
	productdomain "github.com/smallbiznis/invoicepos/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("export",
	fx.Provide(New),
)

var (
	productHeader  = []string{"id", "business_id", "name", "sku", "price", "stock_qty"}
	customerHeader = []string{"id", "business_id", "name", "contact", "trn"}
	invoiceHeader  = []string{"id", "number", "date", "due_date", "subtotal", "tax", "total", "status"}
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Products  productdomain.Service
	Customers customerdomain.Service
	Invoices  invoicedomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	products  productdomain.Service
	customers customerdomain.Service
	invoices  invoicedomain.Service
	metrics   *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		log:       p.Log.Named("export.service"),
		products:  p.Products,
		customers: p.Customers,
		invoices:  p.Invoices,
		metrics:   p.Metrics,
	}
}

// Products returns the tenant's products as CSV. No rows yields an empty body.
func (s *Service) Products(ctx context.Context) ([]byte, error) {
	items, err := s.products.List(ctx, productdomain.ListProductRequest{})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(items))
	for _, p := range items {
		rows = append(rows, []string{
			p.ID.String(),
			p.BusinessID.String(),
			p.Name,
			p.SKU,
			p.Price.StringFixed(calc.MoneyPlaces),
			strconv.FormatInt(p.StockQty, 10),
		})
	}
	return s.write(ctx, "products", productHeader, rows)
}

// Customers returns the tenant's customers as CSV. No rows yields an empty body.
func (s *Service) Customers(ctx context.Context) ([]byte, error) {
	items, err := s.customers.List(ctx, customerdomain.ListCustomerRequest{})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{
			c.ID.String(),
			c.BusinessID.String(),
			c.Name,
			c.Contact,
			c.TRN,
		})
	}
	return s.write(ctx, "customers", customerHeader, rows)
}

// Invoices returns the tenant's invoices as CSV. No rows yields an empty body.
func (s *Service) Invoices(ctx context.Context) ([]byte, error) {
	items, err := s.invoices.List(ctx, invoicedomain.ListInvoiceRequest{})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(items))
	for _, inv := range items {
		dueDate := ""
		if inv.DueDate != nil {
			dueDate = inv.DueDate.Format(invoicedomain.DateLayout)
		}
		rows = append(rows, []string{
			inv.ID.String(),
			inv.Number,
			inv.Date.Format(invoicedomain.DateLayout),
			dueDate,
			inv.Subtotal.StringFixed(calc.MoneyPlaces),
			inv.Tax.StringFixed(calc.MoneyPlaces),
			inv.Total.StringFixed(calc.MoneyPlaces),
			string(inv.Status),
		})
	}
	return s.write(ctx, "invoices", invoiceHeader, rows)
}

func (s *Service) write(ctx context.Context, dataset string, header []string, rows [][]string) ([]byte, error) {
	s.metrics.RecordExport(ctx, dataset)
	if len(rows) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}

	s.log.Debug("export rendered", zap.String("dataset", dataset), zap.Int("rows", len(rows)))
	return buf.Bytes(), nil
}
