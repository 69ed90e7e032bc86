package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*Product, error)
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter ListProductFilter) ([]*Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (int64, error)
	DetachFromInvoiceItems(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
