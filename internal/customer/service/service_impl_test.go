package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/businesscontext"
	"github.com/smallbiznis/invoicepos/internal/clock"
	"github.com/smallbiznis/invoicepos/internal/customer/domain"
	"github.com/smallbiznis/invoicepos/internal/customer/repository"
	"github.com/smallbiznis/invoicepos/internal/migration"
	"github.com/smallbiznis/invoicepos/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migration.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	}), conn
}

func tenant(id int64) context.Context {
	return businesscontext.WithBusinessID(context.Background(), snowflake.ID(id))
}

func TestCreateCustomer(t *testing.T) {
	svc, _ := newTestService(t)

	customer, err := svc.Create(tenant(1), domain.CreateCustomerRequest{Name: " Acme ", Contact: "ops@acme.test", TRN: "300"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if customer.Name != "Acme" || customer.BusinessID != 1 {
		t.Fatalf("unexpected customer: %+v", customer)
	}

	got, err := svc.GetByID(tenant(1), customer.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Contact != "ops@acme.test" || got.TRN != "300" {
		t.Fatalf("unexpected stored customer: %+v", got)
	}

	if _, err := svc.GetByID(tenant(2), customer.ID.String()); err != domain.ErrNotFound {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "x"}); err != domain.ErrInvalidBusiness {
		t.Fatalf("expected invalid business, got %v", err)
	}
	if _, err := svc.Create(tenant(1), domain.CreateCustomerRequest{}); err != domain.ErrInvalidName {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if _, err := svc.Create(tenant(1), domain.CreateCustomerRequest{BusinessID: "99", Name: "x"}); err != domain.ErrInvalidBusiness {
		t.Fatalf("expected invalid business for mismatched body, got %v", err)
	}
	if _, err := svc.GetByID(tenant(1), "not-an-id"); err != domain.ErrInvalidID {
		t.Fatalf("expected invalid id, got %v", err)
	}
}

func TestListCustomers(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"Alpha Trading", "Beta LLC", "alphabet"} {
		if _, err := svc.Create(tenant(1), domain.CreateCustomerRequest{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	items, err := svc.List(tenant(1), domain.ListCustomerRequest{Query: "alpha"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(items))
	}
	if items[0].Name != "alphabet" {
		t.Fatalf("expected newest first, got %s", items[0].Name)
	}
}

func TestUpdateAndDeleteCustomer(t *testing.T) {
	svc, conn := newTestService(t)

	customer, err := svc.Create(tenant(1), domain.CreateCustomerRequest{Name: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(tenant(1), customer.ID.String(), domain.UpdateCustomerRequest{Name: "Acme Ltd", Contact: "050"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Acme Ltd" || updated.Contact != "050" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	now := time.Now().UTC()
	if err := conn.Exec(
		`INSERT INTO invoices (id, business_id, customer_id, number, date, subtotal, tax, total, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, 0, 'unpaid', ?, ?)`,
		7, 1, customer.ID, "INV-00001", now, now, now,
	).Error; err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	if err := svc.Delete(tenant(1), customer.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var refs int64
	if err := conn.Raw(`SELECT COUNT(1) FROM invoices WHERE customer_id IS NOT NULL`).Scan(&refs).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if refs != 0 {
		t.Fatalf("expected invoice customer reference cleared, got %d", refs)
	}
	if err := svc.Delete(tenant(1), customer.ID.String()); err != domain.ErrNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
