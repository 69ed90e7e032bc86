package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicepos/internal/businesscontext"
	"github.com/smallbiznis/invoicepos/internal/clock"
	"github.com/smallbiznis/invoicepos/internal/migration"
	"github.com/smallbiznis/invoicepos/internal/product/domain"
	"github.com/smallbiznis/invoicepos/internal/product/repository"
	"github.com/smallbiznis/invoicepos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

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

func TestCreateRoundsPrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := tenant(1)

	p, err := svc.Create(ctx, domain.CreateProductRequest{Name: "Widget", SKU: "W-1", Price: decimal.RequireFromString("9.995"), StockQty: 4})
	require.NoError(t, err)
	assert.Equal(t, "10.00", p.Price.StringFixed(2))

	got, err := svc.GetByID(ctx, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "W-1", got.SKU)
	assert.EqualValues(t, 4, got.StockQty)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(10)))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateProductRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidBusiness)

	_, err = svc.Create(tenant(1), domain.CreateProductRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(tenant(1), domain.CreateProductRequest{Name: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(tenant(1), domain.CreateProductRequest{BusinessID: "2", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidBusiness)
}

func TestListFiltersByNameAndTenant(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"Blue Pen", "Red pen", "Stapler"} {
		_, err := svc.Create(tenant(1), domain.CreateProductRequest{Name: name})
		require.NoError(t, err)
	}
	_, err := svc.Create(tenant(2), domain.CreateProductRequest{Name: "Green Pen"})
	require.NoError(t, err)

	all, err := svc.List(tenant(1), domain.ListProductRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Stapler", all[0].Name, "newest first")

	pens, err := svc.List(tenant(1), domain.ListProductRequest{Query: "PEN"})
	require.NoError(t, err)
	require.Len(t, pens, 2)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := tenant(1)

	p, err := svc.Create(ctx, domain.CreateProductRequest{Name: "Widget", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = svc.Update(tenant(2), p.ID.String(), domain.UpdateProductRequest{Name: "Stolen"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := svc.Update(ctx, p.ID.String(), domain.UpdateProductRequest{Name: "Widget XL", Price: decimal.RequireFromString("7.5"), StockQty: 2})
	require.NoError(t, err)
	assert.Equal(t, "Widget XL", updated.Name)

	got, err := svc.GetByID(ctx, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "7.50", got.Price.StringFixed(2))

	require.NoError(t, conn.Exec(
		`INSERT INTO invoice_items (id, invoice_id, product_id, position, description, quantity, unit_price, line_total, created_at) VALUES (?, ?, ?, 0, 'x', 1, 1, 1, ?)`,
		1, 1, p.ID, time.Now().UTC(),
	).Error)

	assert.ErrorIs(t, svc.Delete(tenant(2), p.ID.String()), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, p.ID.String()))

	var refs int64
	require.NoError(t, conn.Raw(`SELECT COUNT(1) FROM invoice_items WHERE product_id IS NOT NULL`).Scan(&refs).Error)
	assert.Zero(t, refs)

	_, err = svc.GetByID(ctx, p.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
