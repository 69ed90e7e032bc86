package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	Status     InvoiceStatus
	CustomerID *snowflake.ID
	Start      *time.Time
	End        *time.Time
	MinTotal   *decimal.Decimal
	MaxTotal   *decimal.Decimal
}

type Repository interface {
	// NextNumber advances the counter and returns the sequence value it reserved.
	NextNumber(ctx context.Context, db *gorm.DB) (int64, error)
	// AdvancePastTaken moves the counter beyond the highest stored INV- number
	// and returns that number's sequence, or 0 when none is stored.
	AdvancePastTaken(ctx context.Context, db *gorm.DB) (int64, error)
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter ListInvoiceFilter) ([]*Invoice, error)
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Delete(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (int64, error)
	CustomerExists(ctx context.Context, db *gorm.DB, businessID, customerID snowflake.ID) (bool, error)
	CountProducts(ctx context.Context, db *gorm.DB, businessID snowflake.ID, ids []snowflake.ID) (int64, error)
}
