package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	businessdomain "github.com/smallbiznis/invoicepos/internal/business/domain"
	businessservice "github.com/smallbiznis/invoicepos/internal/business/service"
	"github.com/smallbiznis/invoicepos/internal/businesscontext"
	"github.com/smallbiznis/invoicepos/internal/clock"
	customerdomain "github.com/smallbiznis/invoicepos/internal/customer/domain"
	customerrepository "github.com/smallbiznis/invoicepos/internal/customer/repository"
	customerservice "github.com/smallbiznis/invoicepos/internal/customer/service"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"github.com/smallbiznis/invoicepos/internal/invoice/repository"
	"github.com/smallbiznis/invoicepos/internal/migration"
	"github.com/smallbiznis/invoicepos/internal/observability/metrics"
	productdomain "github.com/smallbiznis/invoicepos/internal/product/domain"
	productrepository "github.com/smallbiznis/invoicepos/internal/product/repository"
	productservice "github.com/smallbiznis/invoicepos/internal/product/service"
	"github.com/smallbiznis/invoicepos/internal/providers/pdf"
	"github.com/smallbiznis/invoicepos/internal/seed"
	"github.com/smallbiznis/invoicepos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	conn      *gorm.DB
	svc       invoicedomain.Service
	clock     *clock.FakeClock
	business  businessdomain.Business
	other     businessdomain.Business
	ctx       context.Context
	otherCtx  context.Context
	customers customerdomain.Service
	products  productdomain.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC))

	businesses := businessservice.New(businessservice.Params{DB: conn, Log: log, GenID: node, Clock: clk})
	customers := customerservice.New(customerservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: customerrepository.Provide()})
	products := productservice.New(productservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: productrepository.Provide()})

	ctx := context.Background()
	business, err := businesses.Create(ctx, businessdomain.CreateBusinessRequest{Name: "Corner Shop", TRN: "100000000000003"})
	require.NoError(t, err)
	other, err := businesses.Create(ctx, businessdomain.CreateBusinessRequest{Name: "Other Shop"})
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		Metrics:     metrics.NewNoop(),
		PDF:         pdf.New(),
		BusinessSvc: businesses,
		CustomerSvc: customers,
	})

	return &fixture{
		conn:      conn,
		svc:       svc,
		clock:     clk,
		business:  business,
		other:     other,
		ctx:       businesscontext.WithBusinessID(ctx, business.ID),
		otherCtx:  businesscontext.WithBusinessID(ctx, other.ID),
		customers: customers,
		products:  products,
	}
}

func money(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleItems() []invoicedomain.InvoiceItemRequest {
	return []invoicedomain.InvoiceItemRequest{
		{Description: "Widget", Quantity: 3, UnitPrice: price("10.00")},
		{Description: "Gadget", Quantity: 2, UnitPrice: price("5.555")},
	}
}

func TestCreateComputesTotalsAndNumber(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Items: sampleItems()})
	require.NoError(t, err)

	assert.Equal(t, "INV-00001", inv.Number)
	assert.Equal(t, invoicedomain.InvoiceStatusUnpaid, inv.Status)
	assert.Equal(t, "2026-10-18", inv.Date.Format(invoicedomain.DateLayout))
	money(t, "41.11", inv.Subtotal)
	money(t, "2.06", inv.Tax)
	money(t, "43.17", inv.Total)

	stored, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Widget", stored.Items[0].Description)
	money(t, "30.00", stored.Items[0].LineTotal)
	assert.Equal(t, "Gadget", stored.Items[1].Description)
	money(t, "11.11", stored.Items[1].LineTotal)
	money(t, "43.17", stored.Total)
}

func TestCreateWithoutItemsYieldsZeroTotals(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)
	money(t, "0.00", inv.Subtotal)
	money(t, "0.00", inv.Tax)
	money(t, "0.00", inv.Total)
	assert.Empty(t, inv.Items)
}

func TestCreateSameSuppliedNumberConcurrently(t *testing.T) {
	f := setup(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
				Number: "INV-00005",
				Items:  sampleItems(),
			})
		}(i)
	}
	wg.Wait()

	succeeded, collided := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, invoicedomain.ErrDuplicateNumber):
			collided++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, collided)

	var count int64
	require.NoError(t, f.conn.Model(&invoicedomain.Invoice{}).Where("number = ?", "INV-00005").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateSuppliedNumberCollidesAcrossBusinesses(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Number: "INV-00009"})
	require.NoError(t, err)

	_, err = f.svc.Create(f.otherCtx, invoicedomain.CreateInvoiceRequest{Number: "INV-00009"})
	assert.ErrorIs(t, err, invoicedomain.ErrDuplicateNumber)
}

func TestCreateConcurrentGeneratedNumbersAreUnique(t *testing.T) {
	f := setup(t)

	const n = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]struct{}{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := f.ctx
			if i%2 == 1 {
				ctx = f.otherCtx
			}
			inv, err := f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{Items: sampleItems()})
			if err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			mu.Lock()
			numbers[inv.Number] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, numbers, n)
	for i := 1; i <= n; i++ {
		_, ok := numbers[fmt.Sprintf("INV-%05d", i)]
		assert.True(t, ok, "missing INV-%05d", i)
	}
}

func TestCreateGeneratedSkipsNumberTakenBySuppliedInvoice(t *testing.T) {
	f := setup(t)

	first, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", first.Number)

	_, err = f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Number: "INV-00002"})
	require.NoError(t, err)

	third, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "INV-00003", third.Number)
}

func TestCreateGeneratedSkipsRunOfSuppliedNumbers(t *testing.T) {
	f := setup(t)
	require.NoError(t, seed.EnsureInvoiceSequence(f.ctx, f.conn))

	for i := int64(1); i <= 5; i++ {
		_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Number: calc.FormatNumber(i)})
		require.NoError(t, err)
	}

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "INV-00006", inv.Number)

	next, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "INV-00007", next.Number)
}

func TestCreateGeneratedIgnoresCustomSuppliedNumbers(t *testing.T) {
	f := setup(t)
	require.NoError(t, seed.EnsureInvoiceSequence(f.ctx, f.conn))

	_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Number: "INV-2026-A"})
	require.NoError(t, err)

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", inv.Number)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)

	foreignCustomer, err := f.customers.Create(f.otherCtx, customerdomain.CreateCustomerRequest{Name: "Elsewhere"})
	require.NoError(t, err)
	foreignProduct, err := f.products.Create(f.otherCtx, productdomain.CreateProductRequest{Name: "Elsewhere", Price: price("1")})
	require.NoError(t, err)

	cases := []struct {
		name string
		ctx  context.Context
		req  invoicedomain.CreateInvoiceRequest
		want error
	}{
		{"missing business", context.Background(), invoicedomain.CreateInvoiceRequest{}, invoicedomain.ErrInvalidBusiness},
		{"mismatched body business", f.ctx, invoicedomain.CreateInvoiceRequest{BusinessID: f.other.ID.String()}, invoicedomain.ErrInvalidBusiness},
		{"unknown status", f.ctx, invoicedomain.CreateInvoiceRequest{Status: "void"}, invoicedomain.ErrInvalidStatus},
		{"bad date", f.ctx, invoicedomain.CreateInvoiceRequest{Date: "18/10/2026"}, invoicedomain.ErrInvalidDate},
		{"bad due date", f.ctx, invoicedomain.CreateInvoiceRequest{DueDate: "tomorrow"}, invoicedomain.ErrInvalidDueDate},
		{"foreign customer", f.ctx, invoicedomain.CreateInvoiceRequest{CustomerID: foreignCustomer.ID.String()}, invoicedomain.ErrInvalidCustomer},
		{"foreign product", f.ctx, invoicedomain.CreateInvoiceRequest{Items: []invoicedomain.InvoiceItemRequest{
			{ProductID: foreignProduct.ID.String(), Description: "x", Quantity: 1, UnitPrice: price("1")},
		}}, invoicedomain.ErrInvalidProduct},
		{"unit price finer than stored", f.ctx, invoicedomain.CreateInvoiceRequest{Items: []invoicedomain.InvoiceItemRequest{
			{Description: "x", Quantity: 3, UnitPrice: price("0.33335")},
		}}, invoicedomain.ErrInvalidUnitPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(tc.ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateWithCustomerAndProduct(t *testing.T) {
	f := setup(t)

	customer, err := f.customers.Create(f.ctx, customerdomain.CreateCustomerRequest{Name: "Acme"})
	require.NoError(t, err)
	product, err := f.products.Create(f.ctx, productdomain.CreateProductRequest{Name: "Widget", Price: price("10")})
	require.NoError(t, err)

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Date:       "2026-10-01",
		DueDate:    "2026-10-31",
		Status:     "Draft",
		Items: []invoicedomain.InvoiceItemRequest{
			{ProductID: product.ID.String(), Description: "Widget", Quantity: 2, UnitPrice: price("10")},
			{ProductID: product.ID.String(), Description: "Widget again", Quantity: 1, UnitPrice: price("10")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, inv.CustomerID)
	assert.Equal(t, customer.ID, *inv.CustomerID)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, "2026-10-31", inv.DueDate.Format(invoicedomain.DateLayout))
	money(t, "30.00", inv.Subtotal)
	money(t, "1.50", inv.Tax)
	money(t, "31.50", inv.Total)
}

func TestUpdateReplacesItemsAndKeepsNumber(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Status: "paid", Items: sampleItems()})
	require.NoError(t, err)

	updated, err := f.svc.Update(f.ctx, inv.ID.String(), invoicedomain.UpdateInvoiceRequest{
		Notes: "revised",
		Items: []invoicedomain.InvoiceItemRequest{{Description: "Service", Quantity: 1, UnitPrice: price("100")}},
	})
	require.NoError(t, err)
	assert.Equal(t, inv.Number, updated.Number)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, updated.Status, "empty status keeps the current value")
	money(t, "100.00", updated.Subtotal)
	money(t, "5.00", updated.Tax)
	money(t, "105.00", updated.Total)

	stored, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Service", stored.Items[0].Description)
	assert.Equal(t, "revised", stored.Notes)

	var items int64
	require.NoError(t, f.conn.Model(&invoicedomain.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&items).Error)
	assert.EqualValues(t, 1, items)

	// No transition guard: paid may go back to draft.
	back, err := f.svc.Update(f.ctx, inv.ID.String(), invoicedomain.UpdateInvoiceRequest{Status: "draft"})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, back.Status)
	money(t, "0.00", back.Total)
}

func TestUpdateIsTenantScoped(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)

	_, err = f.svc.Update(f.otherCtx, inv.ID.String(), invoicedomain.UpdateInvoiceRequest{Status: "paid"})
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	_, err = f.svc.Update(f.ctx, inv.ID.String(), invoicedomain.UpdateInvoiceRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)
}

func TestListFilters(t *testing.T) {
	f := setup(t)

	customer, err := f.customers.Create(f.ctx, customerdomain.CreateCustomerRequest{Name: "Acme"})
	require.NoError(t, err)

	small, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Date:  "2026-09-01",
		Items: []invoicedomain.InvoiceItemRequest{{Description: "a", Quantity: 1, UnitPrice: price("10")}},
	})
	require.NoError(t, err)
	large, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Date:       "2026-10-05",
		CustomerID: customer.ID.String(),
		Status:     "paid",
		Items:      []invoicedomain.InvoiceItemRequest{{Description: "b", Quantity: 10, UnitPrice: price("100")}},
	})
	require.NoError(t, err)
	_, err = f.svc.Create(f.otherCtx, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, err)

	all, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, large.ID, all[0].ID, "newest first")
	require.Len(t, all[0].Items, 1)

	paid, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, large.ID, paid[0].ID)

	byCustomer, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{CustomerID: customer.ID.String()})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)

	minTotal := price("100")
	expensive, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{MinTotal: &minTotal})
	require.NoError(t, err)
	require.Len(t, expensive, 1)
	assert.Equal(t, large.ID, expensive[0].ID)

	maxTotal := price("10.50")
	cheap, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{MaxTotal: &maxTotal})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, small.ID, cheap[0].ID)

	start := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	september, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, september, 1, "start and end are inclusive calendar dates")
	assert.Equal(t, small.ID, september[0].ID)

	_, err = f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{Status: "bogus"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)
}

func TestDeleteRemovesInvoiceAndItems(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Items: sampleItems()})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(f.otherCtx, inv.ID.String()), invoicedomain.ErrNotFound)
	require.NoError(t, f.svc.Delete(f.ctx, inv.ID.String()))

	_, err = f.svc.GetByID(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	var items int64
	require.NoError(t, f.conn.Model(&invoicedomain.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&items).Error)
	assert.Zero(t, items)

	assert.ErrorIs(t, f.svc.Delete(f.ctx, inv.ID.String()), invoicedomain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(f.ctx, "nope"), invoicedomain.ErrInvalidID)
}

func TestRenderPDF(t *testing.T) {
	f := setup(t)

	customer, err := f.customers.Create(f.ctx, customerdomain.CreateCustomerRequest{Name: "Acme", TRN: "200"})
	require.NoError(t, err)
	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{CustomerID: customer.ID.String(), Items: sampleItems()})
	require.NoError(t, err)

	body, err := f.svc.RenderPDF(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	_, err = f.svc.RenderPDF(f.otherCtx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}
