package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateBusinessRequest struct {
	Name           string `json:"name"`
	AddressLine1   string `json:"address_line1"`
	AddressLine2   string `json:"address_line2"`
	ContactNumber1 string `json:"contact_number1"`
	ContactNumber2 string `json:"contact_number2"`
	TRN            string `json:"trn"`
}

type UpdateBusinessRequest = CreateBusinessRequest

type Service interface {
	Create(ctx context.Context, req CreateBusinessRequest) (Business, error)
	List(ctx context.Context) ([]Business, error)
	GetByID(ctx context.Context, id string) (Business, error)
	Update(ctx context.Context, id string, req UpdateBusinessRequest) (Business, error)
	Delete(ctx context.Context, id string) error
	SetLogoPath(ctx context.Context, id snowflake.ID, path string) (Business, error)
	SetSignaturePath(ctx context.Context, id snowflake.ID, path string) (Business, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
	ErrInUse       = errors.New("business_in_use")
)
