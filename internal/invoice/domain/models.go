// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is a descriptive tag. Any status may be replaced by any other.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusUnpaid, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	default:
		return false
	}
}

// Invoice is a tenant-scoped bill. Number is unique across all tenants.
type Invoice struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	BusinessID snowflake.ID    `gorm:"not null;index" json:"business_id"`
	CustomerID *snowflake.ID   `gorm:"index" json:"customer_id"`
	Number     string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_invoices_number" json:"number"`
	Date       time.Time       `gorm:"type:date;not null" json:"date"`
	DueDate    *time.Time      `gorm:"type:date" json:"due_date"`
	Notes      string          `gorm:"type:text" json:"notes"`
	Subtotal   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	Tax        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
	Status     InvoiceStatus   `gorm:"type:varchar(16);not null;default:'unpaid'" json:"status"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is a priced line owned by its invoice. Items are replaced, never patched.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	ProductID   *snowflake.ID   `gorm:"index" json:"product_id"`
	Position    int             `gorm:"not null;default:0" json:"-"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// GlobalSequenceScope keys the single counter row shared by every tenant.
const GlobalSequenceScope = "global"

// InvoiceSequence holds the next number to hand out for a numbering scope.
type InvoiceSequence struct {
	Scope      string    `gorm:"primaryKey;type:varchar(32)"`
	NextNumber int64     `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }
