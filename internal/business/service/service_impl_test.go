package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/business/domain"
	"github.com/smallbiznis/invoicepos/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"github.com/smallbiznis/invoicepos/internal/migration"
	"github.com/smallbiznis/invoicepos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC))

	return New(Params{DB: conn, Log: zap.NewNop(), GenID: node, Clock: clk}), conn, clk
}

func TestCreateAndGet(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateBusinessRequest{
		Name:           "  Corner Shop ",
		AddressLine1:   "Shop 4",
		ContactNumber1: "+971 4 000 0000",
		TRN:            "100000000000003",
	})
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", created.Name)
	assert.NotZero(t, created.ID)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Shop 4", got.AddressLine1)
	assert.Equal(t, "100000000000003", got.TRN)
}

func TestCreateRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateBusinessRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateBusinessRequest{Name: "First"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.CreateBusinessRequest{Name: "Second"})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestUpdateAndPaths(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateBusinessRequest{Name: "Old", TRN: "1"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	updated, err := svc.Update(ctx, created.ID.String(), domain.UpdateBusinessRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Empty(t, updated.TRN, "update replaces every editable field")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	withLogo, err := svc.SetLogoPath(ctx, created.ID, "uploads/business_1/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/business_1/logo.png", withLogo.LogoPath)

	withSig, err := svc.SetSignaturePath(ctx, created.ID, "uploads/business_1/sig.png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/business_1/logo.png", withSig.LogoPath)
	assert.Equal(t, "uploads/business_1/sig.png", withSig.ManagerSignaturePath)

	_, err = svc.SetLogoPath(ctx, snowflake.ID(42), "x.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRefusesWhileInvoicesExist(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	business, err := svc.Create(ctx, domain.CreateBusinessRequest{Name: "Busy"})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, conn.Omit("Items").Create(&invoicedomain.Invoice{
		ID:         snowflake.ID(999),
		BusinessID: business.ID,
		Number:     "INV-00001",
		Date:       now,
		Status:     invoicedomain.InvoiceStatusUnpaid,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)

	assert.ErrorIs(t, svc.Delete(ctx, business.ID.String()), domain.ErrInUse)

	require.NoError(t, conn.Exec(`DELETE FROM invoices`).Error)
	require.NoError(t, svc.Delete(ctx, business.ID.String()))

	_, err = svc.GetByID(ctx, business.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, business.ID.String()), domain.ErrNotFound)
}
