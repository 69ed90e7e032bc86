package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter ListCustomerFilter) ([]*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (int64, error)
	DetachFromInvoices(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
