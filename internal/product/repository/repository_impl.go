package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/product/domain"
	"github.com/smallbiznis/invoicepos/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, business_id, name, sku, price, stock_qty, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.BusinessID,
		product.Name,
		product.SKU,
		product.Price,
		product.StockQty,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, business_id, name, sku, price, stock_qty, created_at, updated_at
		 FROM products WHERE business_id = ? AND id = ?`,
		businessID,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter domain.ListProductFilter) ([]*domain.Product, error) {
	var items []*domain.Product
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("business_id = ?", businessID)
	stmt = option.ContainsFold("name", filter.NameContains).Apply(stmt)
	err := stmt.Order("id desc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products SET name = ?, sku = ?, price = ?, stock_qty = ?, updated_at = ?
		 WHERE business_id = ? AND id = ?`,
		product.Name,
		product.SKU,
		product.Price,
		product.StockQty,
		product.UpdatedAt,
		product.BusinessID,
		product.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM products WHERE business_id = ? AND id = ?`,
		businessID,
		id,
	)
	return result.RowsAffected, result.Error
}

// DetachFromInvoiceItems clears item references so invoices keep their history.
func (r *repo) DetachFromInvoiceItems(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoice_items SET product_id = NULL WHERE product_id = ?`,
		id,
	).Error
}
