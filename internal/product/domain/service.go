package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type ListProductRequest struct {
	Query string
}

type ListProductFilter struct {
	NameContains string
}

type CreateProductRequest struct {
	BusinessID string          `json:"business_id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Price      decimal.Decimal `json:"price"`
	StockQty   int64           `json:"stock_qty"`
}

type UpdateProductRequest = CreateProductRequest

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	List(ctx context.Context, req ListProductRequest) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Update(ctx context.Context, id string, req UpdateProductRequest) (Product, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidBusiness = errors.New("invalid_business")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)
