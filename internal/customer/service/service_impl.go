package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/businesscontext"
	"github.com/smallbiznis/invoicepos/internal/clock"
	"github.com/smallbiznis/invoicepos/internal/customer/domain"
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
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	businessID, err := s.businessIDFromContext(ctx, req.BusinessID)
	if err != nil {
		return domain.Customer{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:         s.genID.Generate(),
		BusinessID: businessID,
		Name:       name,
		Contact:    strings.TrimSpace(req.Contact),
		TRN:        strings.TrimSpace(req.TRN),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) ([]domain.Customer, error) {
	businessID, err := s.businessIDFromContext(ctx, "")
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, businessID, domain.ListCustomerFilter{
		NameContains: strings.TrimSpace(req.Query),
	})
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}
	return customers, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	businessID, err := s.businessIDFromContext(ctx, "")
	if err != nil {
		return domain.Customer{}, err
	}

	customerID, err := s.parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	return s.load(ctx, businessID, customerID)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	businessID, err := s.businessIDFromContext(ctx, req.BusinessID)
	if err != nil {
		return domain.Customer{}, err
	}

	customerID, err := s.parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	customer, err := s.load(ctx, businessID, customerID)
	if err != nil {
		return domain.Customer{}, err
	}

	customer.Name = name
	customer.Contact = strings.TrimSpace(req.Contact)
	customer.TRN = strings.TrimSpace(req.TRN)
	customer.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

// Delete removes the customer. Invoices billed to it stay, without the reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	businessID, err := s.businessIDFromContext(ctx, "")
	if err != nil {
		return err
	}

	customerID, err := s.parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DetachFromInvoices(ctx, tx, customerID); err != nil {
			return err
		}
		affected, err := s.repo.Delete(ctx, tx, businessID, customerID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *Service) load(ctx context.Context, businessID, id snowflake.ID) (domain.Customer, error) {
	item, err := s.repo.FindByID(ctx, s.db, businessID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) businessIDFromContext(ctx context.Context, bodyID string) (snowflake.ID, error) {
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

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
