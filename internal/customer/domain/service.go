package domain

import (
	"context"
	"errors"
)

type ListCustomerRequest struct {
	Query string
}

type ListCustomerFilter struct {
	NameContains string
}

type CreateCustomerRequest struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	Contact    string `json:"contact"`
	TRN        string `json:"trn"`
}

type UpdateCustomerRequest = CreateCustomerRequest

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) ([]Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	Update(ctx context.Context, id string, req UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidBusiness = errors.New("invalid_business")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)
