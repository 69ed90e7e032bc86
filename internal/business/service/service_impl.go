package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/business/domain"
	"github.com/smallbiznis/invoicepos/internal/clock"
	"github.com/smallbiznis/invoicepos/pkg/db/option"
	"github.com/smallbiznis/invoicepos/pkg/repository"
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
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	businessrepo repository.Repository[domain.Business]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("business.service"),
		genID: p.GenID,
		clock: p.Clock,

		businessrepo: repository.ProvideStore[domain.Business](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBusinessRequest) (domain.Business, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Business{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	business := domain.Business{
		ID:        s.genID.Generate(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyFields(&business, req)

	if err := s.businessrepo.Create(ctx, &business); err != nil {
		return domain.Business{}, err
	}

	s.log.Info("business created", zap.String("business_id", business.ID.String()))
	return business, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Business, error) {
	items, err := s.businessrepo.Find(ctx, &domain.Business{}, option.WithSortBy(option.QuerySortBy{}))
	if err != nil {
		return nil, err
	}

	businesses := make([]domain.Business, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		businesses = append(businesses, *item)
	}
	return businesses, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Business, error) {
	businessID, err := parseID(id)
	if err != nil {
		return domain.Business{}, err
	}
	return s.load(ctx, s.businessrepo, businessID)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateBusinessRequest) (domain.Business, error) {
	businessID, err := parseID(id)
	if err != nil {
		return domain.Business{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.Business{}, domain.ErrInvalidName
	}

	business, err := s.load(ctx, s.businessrepo, businessID)
	if err != nil {
		return domain.Business{}, err
	}

	applyFields(&business, req)
	business.UpdatedAt = s.clock.Now()
	if err := s.businessrepo.Save(ctx, &business); err != nil {
		return domain.Business{}, err
	}
	return business, nil
}

// Delete removes a business together with its products and customers.
// A business that still owns invoices is never removed.
func (s *Service) Delete(ctx context.Context, id string) error {
	businessID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.businessrepo.WithTrx(tx)
		if _, err := s.load(ctx, repo, businessID); err != nil {
			return err
		}

		var invoices int64
		if err := tx.Raw(`SELECT COUNT(1) FROM invoices WHERE business_id = ?`, businessID).Scan(&invoices).Error; err != nil {
			return err
		}
		if invoices > 0 {
			return domain.ErrInUse
		}

		for _, table := range []string{"products", "customers"} {
			if err := tx.Exec(`DELETE FROM `+table+` WHERE business_id = ?`, businessID).Error; err != nil {
				return err
			}
		}
		if _, err := repo.Delete(ctx, &domain.Business{ID: businessID}); err != nil {
			return err
		}

		s.log.Info("business deleted", zap.String("business_id", businessID.String()))
		return nil
	})
}

func (s *Service) SetLogoPath(ctx context.Context, id snowflake.ID, path string) (domain.Business, error) {
	return s.setPath(ctx, id, func(b *domain.Business) { b.LogoPath = path })
}

func (s *Service) SetSignaturePath(ctx context.Context, id snowflake.ID, path string) (domain.Business, error) {
	return s.setPath(ctx, id, func(b *domain.Business) { b.ManagerSignaturePath = path })
}

func (s *Service) setPath(ctx context.Context, id snowflake.ID, apply func(*domain.Business)) (domain.Business, error) {
	business, err := s.load(ctx, s.businessrepo, id)
	if err != nil {
		return domain.Business{}, err
	}

	apply(&business)
	business.UpdatedAt = s.clock.Now()
	if err := s.businessrepo.Save(ctx, &business); err != nil {
		return domain.Business{}, err
	}
	return business, nil
}

func (s *Service) load(ctx context.Context, repo repository.Repository[domain.Business], id snowflake.ID) (domain.Business, error) {
	item, err := repo.FindOne(ctx, &domain.Business{ID: id})
	if err != nil {
		return domain.Business{}, err
	}
	if item == nil {
		return domain.Business{}, domain.ErrNotFound
	}
	return *item, nil
}

func applyFields(b *domain.Business, req domain.CreateBusinessRequest) {
	b.Name = strings.TrimSpace(req.Name)
	b.AddressLine1 = strings.TrimSpace(req.AddressLine1)
	b.AddressLine2 = strings.TrimSpace(req.AddressLine2)
	b.ContactNumber1 = strings.TrimSpace(req.ContactNumber1)
	b.ContactNumber2 = strings.TrimSpace(req.ContactNumber2)
	b.TRN = strings.TrimSpace(req.TRN)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
