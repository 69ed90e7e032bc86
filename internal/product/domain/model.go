package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
)

type Product struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	BusinessID snowflake.ID    `json:"business_id" gorm:"not null;index"`
	Name       string          `json:"name" gorm:"type:varchar(255);not null"`
	SKU        string          `json:"sku" gorm:"column:sku;type:varchar(64)"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	StockQty   int64           `json:"stock_qty" gorm:"not null;default:0"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// MarshalJSON renders price with two decimals, matching invoice money fields.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{
		plain: plain(p),
		Price: p.Price.StringFixed(calc.MoneyPlaces),
	})
}
