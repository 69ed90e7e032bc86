package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/businesscontext"
	"github.com/smallbiznis/invoicepos/internal/clock"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
	"github.com/smallbiznis/invoicepos/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	businessID, err := scopedBusinessID(ctx, req.BusinessID)
	if err != nil {
		return domain.Product{}, err
	}

	now := s.clock.Now()
	product := domain.Product{
		ID:         s.genID.Generate(),
		BusinessID: businessID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := applyFields(&product, req); err != nil {
		return domain.Product{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProductRequest) ([]domain.Product, error) {
	businessID, err := scopedBusinessID(ctx, "")
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, businessID, domain.ListProductFilter{
		NameContains: strings.TrimSpace(req.Query),
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, *item)
	}
	return products, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Product, error) {
	businessID, err := scopedBusinessID(ctx, "")
	if err != nil {
		return domain.Product{}, err
	}
	productID, err := parseID(id)
	if err != nil {
		return domain.Product{}, err
	}
	return s.load(ctx, s.db, businessID, productID)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateProductRequest) (domain.Product, error) {
	businessID, err := scopedBusinessID(ctx, req.BusinessID)
	if err != nil {
		return domain.Product{}, err
	}
	productID, err := parseID(id)
	if err != nil {
		return domain.Product{}, err
	}

	product, err := s.load(ctx, s.db, businessID, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if err := applyFields(&product, req); err != nil {
		return domain.Product{}, err
	}
	product.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	businessID, err := scopedBusinessID(ctx, "")
	if err != nil {
		return err
	}
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DetachFromInvoiceItems(ctx, tx, productID); err != nil {
			return err
		}
		affected, err := s.repo.Delete(ctx, tx, businessID, productID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *Service) load(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (domain.Product, error) {
	item, err := s.repo.FindByID(ctx, db, businessID, id)
	if err != nil {
		return domain.Product{}, err
	}
	if item == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *item, nil
}

func applyFields(p *domain.Product, req domain.CreateProductRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ErrInvalidName
	}
	if req.Price.IsNegative() {
		return domain.ErrInvalidPrice
	}

	p.Name = name
	p.SKU = strings.TrimSpace(req.SKU)
	p.Price = calc.Round(req.Price)
	p.StockQty = req.StockQty
	return nil
}

// scopedBusinessID resolves the tenant from ctx. A non-empty bodyID must name the same tenant.
func scopedBusinessID(ctx context.Context, bodyID string) (snowflake.ID, error) {
	businessID, ok := businesscontext.BusinessIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidBusiness
	}
	if raw := strings.TrimSpace(bodyID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed != businessID {
			return 0, domain.ErrInvalidBusiness
		}
	}
	return businessID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
