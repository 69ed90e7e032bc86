package export

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/invoicepos/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	productdomain "github.com/smallbiznis/invoicepos/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type productServiceMock struct {
	mock.Mock
	productdomain.Service
}

func (m *productServiceMock) List(ctx context.Context, req productdomain.ListProductRequest) ([]productdomain.Product, error) {
	args := m.Called(ctx, req)
	return args.Get(0).([]productdomain.Product), args.Error(1)
}

type customerServiceMock struct {
	mock.Mock
	customerdomain.Service
}

func (m *customerServiceMock) List(ctx context.Context, req customerdomain.ListCustomerRequest) ([]customerdomain.Customer, error) {
	args := m.Called(ctx, req)
	return args.Get(0).([]customerdomain.Customer), args.Error(1)
}

type invoiceServiceMock struct {
	mock.Mock
	invoicedomain.Service
}

func (m *invoiceServiceMock) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.Invoice, error) {
	args := m.Called(ctx, req)
	return args.Get(0).([]invoicedomain.Invoice), args.Error(1)
}

func newService(p *productServiceMock, c *customerServiceMock, i *invoiceServiceMock) *Service {
	return New(Params{Log: zap.NewNop(), Products: p, Customers: c, Invoices: i})
}

func TestProductsCSV(t *testing.T) {
	products := &productServiceMock{}
	products.On("List", mock.Anything, productdomain.ListProductRequest{}).Return([]productdomain.Product{
		{ID: snowflake.ID(10), BusinessID: snowflake.ID(1), Name: "Pen, blue", SKU: "P-1", Price: decimal.RequireFromString("2.5"), StockQty: 12},
	}, nil)

	out, err := newService(products, nil, nil).Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id,business_id,name,sku,price,stock_qty\n10,1,\"Pen, blue\",P-1,2.50,12\n", string(out))
	products.AssertExpectations(t)
}

func TestCustomersCSVEmpty(t *testing.T) {
	customers := &customerServiceMock{}
	customers.On("List", mock.Anything, customerdomain.ListCustomerRequest{}).Return([]customerdomain.Customer{}, nil)

	out, err := newService(nil, customers, nil).Customers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCustomersCSV(t *testing.T) {
	customers := &customerServiceMock{}
	customers.On("List", mock.Anything, customerdomain.ListCustomerRequest{}).Return([]customerdomain.Customer{
		{ID: snowflake.ID(3), BusinessID: snowflake.ID(1), Name: "Acme", Contact: "050", TRN: "300"},
	}, nil)

	out, err := newService(nil, customers, nil).Customers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id,business_id,name,contact,trn\n3,1,Acme,050,300\n", string(out))
}

func TestInvoicesCSV(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	invoices := &invoiceServiceMock{}
	invoices.On("List", mock.Anything, invoicedomain.ListInvoiceRequest{}).Return([]invoicedomain.Invoice{
		{
			ID:       snowflake.ID(5),
			Number:   "INV-00001",
			Date:     time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
			DueDate:  &due,
			Subtotal: decimal.RequireFromString("41.11"),
			Tax:      decimal.RequireFromString("2.06"),
			Total:    decimal.RequireFromString("43.17"),
			Status:   invoicedomain.InvoiceStatusUnpaid,
		},
		{
			ID:     snowflake.ID(4),
			Number: "INV-00000",
			Date:   time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
			Status: invoicedomain.InvoiceStatusDraft,
		},
	}, nil)

	out, err := newService(nil, nil, invoices).Invoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		"id,number,date,due_date,subtotal,tax,total,status\n"+
			"5,INV-00001,2026-10-18,2026-11-01,41.11,2.06,43.17,unpaid\n"+
			"4,INV-00000,2026-10-17,,0.00,0.00,0.00,draft\n",
		string(out))
}

func TestExportPropagatesErrors(t *testing.T) {
	invoices := &invoiceServiceMock{}
	invoices.On("List", mock.Anything, invoicedomain.ListInvoiceRequest{}).Return([]invoicedomain.Invoice(nil), invoicedomain.ErrInvalidBusiness)

	_, err := newService(nil, nil, invoices).Invoices(context.Background())
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidBusiness)
}
