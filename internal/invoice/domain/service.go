package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceItemRequest struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	BusinessID string               `json:"business_id"`
	CustomerID string               `json:"customer_id"`
	Number     string               `json:"number"`
	Date       string               `json:"date"`
	DueDate    string               `json:"due_date"`
	Notes      string               `json:"notes"`
	Status     string               `json:"status"`
	Items      []InvoiceItemRequest `json:"items"`
}

// UpdateInvoiceRequest replaces every editable field and all items. The number never changes.
type UpdateInvoiceRequest struct {
	BusinessID string               `json:"business_id"`
	CustomerID string               `json:"customer_id"`
	Date       string               `json:"date"`
	DueDate    string               `json:"due_date"`
	Notes      string               `json:"notes"`
	Status     string               `json:"status"`
	Items      []InvoiceItemRequest `json:"items"`
}

type ListInvoiceRequest struct {
	Status     string
	CustomerID string
	Start      *time.Time
	End        *time.Time
	MinTotal   *decimal.Decimal
	MaxTotal   *decimal.Decimal
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) ([]Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, id string) error
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}

// DateLayout is the wire format of invoice issue and due dates.
const DateLayout = "2006-01-02"

var (
	ErrInvalidBusiness  = errors.New("invalid_business")
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidProduct   = errors.New("invalid_product")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrInvalidDueDate   = errors.New("invalid_due_date")
	ErrInvalidNumber    = errors.New("invalid_number")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidUnitPrice = errors.New("invalid_unit_price")
	ErrNotFound         = errors.New("not_found")
	ErrDuplicateNumber  = errors.New("duplicate_invoice_number")
	ErrNumberExhausted  = errors.New("invoice_number_unavailable")
)
