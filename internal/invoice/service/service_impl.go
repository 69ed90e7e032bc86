package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	businessdomain "github.com/smallbiznis/invoicepos/internal/business/domain"
	"github.com/smallbiznis/invoicepos/internal/businesscontext"
	"github.com/smallbiznis/invoicepos/internal/clock"
	customerdomain "github.com/smallbiznis/invoicepos/internal/customer/domain"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"github.com/smallbiznis/invoicepos/internal/observability/metrics"
	"github.com/smallbiznis/invoicepos/internal/providers/pdf"
	"github.com/smallbiznis/invoicepos/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds how many generated numbers are tried before giving up.
const maxNumberAttempts = 5

const (
	numberSourceGenerated = "generated"
	numberSourceSupplied  = "supplied"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        invoicedomain.Repository
	Metrics     *metrics.Metrics `optional:"true"`
	PDF         pdf.Provider     `optional:"true"`
	BusinessSvc businessdomain.Service
	CustomerSvc customerdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo        invoicedomain.Repository
	metrics     *metrics.Metrics
	pdf         pdf.Provider
	businessSvc businessdomain.Service
	customerSvc customerdomain.Service
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,

		repo:        p.Repo,
		metrics:     p.Metrics,
		pdf:         p.PDF,
		businessSvc: p.BusinessSvc,
		customerSvc: p.CustomerSvc,
	}
}

// header is the validated, tenant-resolved part of a create or update request.
type header struct {
	businessID snowflake.ID
	customerID *snowflake.ID
	date       time.Time
	dueDate    *time.Time
	notes      string
	status     invoicedomain.InvoiceStatus
	drafts     []calc.ItemDraft
	productIDs []snowflake.ID
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	h, err := s.parseHeader(ctx, req.BusinessID, req.CustomerID, req.Date, req.DueDate, req.Notes, req.Status, req.Items)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	supplied := strings.TrimSpace(req.Number)
	if len(supplied) > 64 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidNumber
	}
	source := numberSourceGenerated
	if supplied != "" {
		source = numberSourceSupplied
	}

	for attempt := 1; ; attempt++ {
		var seq int64
		if supplied == "" {
			// The counter advances in its own transaction so a failed insert never hands the same value out again.
			if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				seq, err = s.repo.NextNumber(ctx, tx)
				return err
			}); err != nil {
				return invoicedomain.Invoice{}, err
			}
		}

		invoice, err := s.insert(ctx, h, calc.Compute(h.drafts, supplied, seq))
		if err == nil {
			s.metrics.RecordInvoiceCreated(ctx, source)
			s.log.Info("invoice created",
				zap.String("invoice_id", invoice.ID.String()),
				zap.String("business_id", h.businessID.String()),
				zap.String("number", invoice.Number),
			)
			return invoice, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return invoicedomain.Invoice{}, err
		}

		s.metrics.RecordNumberCollision(ctx, source)
		if supplied != "" {
			return invoicedomain.Invoice{}, invoicedomain.ErrDuplicateNumber
		}
		if attempt >= maxNumberAttempts {
			s.log.Error("invoice number allocation exhausted", zap.Int("attempts", attempt))
			return invoicedomain.Invoice{}, invoicedomain.ErrNumberExhausted
		}
		// Supplied numbers can occupy a run of generated ones; skip the whole run at once.
		var highest int64
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			highest, err = s.repo.AdvancePastTaken(ctx, tx)
			return err
		}); err != nil {
			return invoicedomain.Invoice{}, err
		}
		s.log.Warn("generated invoice number already taken, retrying",
			zap.String("number", calc.FormatNumber(seq)),
			zap.Int64("highest_taken", highest),
			zap.Int("attempt", attempt),
		)
	}
}

func (s *Service) insert(ctx context.Context, h header, computed calc.Result) (invoicedomain.Invoice, error) {
	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:         s.genID.Generate(),
		BusinessID: h.businessID,
		CustomerID: h.customerID,
		Number:     computed.Number,
		Date:       h.date,
		DueDate:    h.dueDate,
		Notes:      h.notes,
		Subtotal:   computed.Subtotal,
		Tax:        computed.Tax,
		Total:      computed.Total,
		Status:     h.status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	invoice.Items = s.buildItems(invoice.ID, computed.Items, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(ctx, tx, h); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.Invoice, error) {
	businessID, err := s.businessIDFromContext(ctx, "")
	if err != nil {
		return nil, err
	}

	filter := invoicedomain.ListInvoiceFilter{
		Start:    req.Start,
		End:      req.End,
		MinTotal: req.MinTotal,
		MaxTotal: req.MaxTotal,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := invoicedomain.InvoiceStatus(strings.ToLower(raw))
		if !status.Valid() {
			return nil, invoicedomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil || customerID == 0 {
			return nil, invoicedomain.ErrInvalidCustomer
		}
		filter.CustomerID = &customerID
	}
	if filter.Start != nil {
		start := dateOnly(*filter.Start)
		filter.Start = &start
	}
	if filter.End != nil {
		end := dateOnly(*filter.End)
		filter.End = &end
	}

	items, err := s.repo.List(ctx, s.db, businessID, filter)
	if err != nil {
		return nil, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	businessID, err := s.businessIDFromContext(ctx, "")
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.load(ctx, s.db, businessID, invoiceID)
}

// Update replaces the header fields and all items and recomputes the totals.
// An empty status keeps the current one.
func (s *Service) Update(ctx context.Context, id string, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	h, err := s.parseHeader(ctx, req.BusinessID, req.CustomerID, req.Date, req.DueDate, req.Notes, req.Status, req.Items)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.load(ctx, tx, h.businessID, invoiceID)
		if err != nil {
			return err
		}
		if err := s.checkReferences(ctx, tx, h); err != nil {
			return err
		}

		computed := calc.Compute(h.drafts, current.Number, 0)
		now := s.clock.Now()

		invoice = current
		invoice.CustomerID = h.customerID
		invoice.Date = h.date
		invoice.DueDate = h.dueDate
		invoice.Notes = h.notes
		if strings.TrimSpace(req.Status) != "" {
			invoice.Status = h.status
		}
		invoice.Subtotal = computed.Subtotal
		invoice.Tax = computed.Tax
		invoice.Total = computed.Total
		invoice.UpdatedAt = now
		invoice.Items = s.buildItems(invoice.ID, computed.Items, now)

		return s.repo.Update(ctx, tx, &invoice)
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	businessID, err := s.businessIDFromContext(ctx, "")
	if err != nil {
		return err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.repo.Delete(ctx, tx, businessID, invoiceID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return invoicedomain.ErrNotFound
		}
		return nil
	})
}

func (s *Service) parseHeader(
	ctx context.Context,
	bodyBusinessID, customerID, date, dueDate, notes, status string,
	items []invoicedomain.InvoiceItemRequest,
) (header, error) {
	businessID, err := s.businessIDFromContext(ctx, bodyBusinessID)
	if err != nil {
		return header{}, err
	}

	h := header{
		businessID: businessID,
		notes:      strings.TrimSpace(notes),
		status:     invoicedomain.InvoiceStatusUnpaid,
	}

	if raw := strings.TrimSpace(customerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return header{}, invoicedomain.ErrInvalidCustomer
		}
		h.customerID = &id
	}

	h.date = dateOnly(s.clock.Now())
	if raw := strings.TrimSpace(date); raw != "" {
		parsed, err := time.Parse(invoicedomain.DateLayout, raw)
		if err != nil {
			return header{}, invoicedomain.ErrInvalidDate
		}
		h.date = parsed
	}
	if raw := strings.TrimSpace(dueDate); raw != "" {
		parsed, err := time.Parse(invoicedomain.DateLayout, raw)
		if err != nil {
			return header{}, invoicedomain.ErrInvalidDueDate
		}
		h.dueDate = &parsed
	}

	if raw := strings.TrimSpace(status); raw != "" {
		h.status = invoicedomain.InvoiceStatus(strings.ToLower(raw))
		if !h.status.Valid() {
			return header{}, invoicedomain.ErrInvalidStatus
		}
	}

	seen := map[snowflake.ID]struct{}{}
	h.drafts = make([]calc.ItemDraft, 0, len(items))
	for _, item := range items {
		// Items store unit_price at four places; a finer price would be priced on a value never persisted.
		if !item.UnitPrice.Equal(item.UnitPrice.Round(calc.UnitPricePlaces)) {
			return header{}, invoicedomain.ErrInvalidUnitPrice
		}
		draft := calc.ItemDraft{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		if raw := strings.TrimSpace(item.ProductID); raw != "" {
			id, err := snowflake.ParseString(raw)
			if err != nil || id == 0 {
				return header{}, invoicedomain.ErrInvalidProduct
			}
			ref := id.Int64()
			draft.ProductRef = &ref
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				h.productIDs = append(h.productIDs, id)
			}
		}
		h.drafts = append(h.drafts, draft)
	}

	return h, nil
}

// checkReferences verifies the customer and products belong to the invoice's business.
func (s *Service) checkReferences(ctx context.Context, tx *gorm.DB, h header) error {
	if h.customerID != nil {
		ok, err := s.repo.CustomerExists(ctx, tx, h.businessID, *h.customerID)
		if err != nil {
			return err
		}
		if !ok {
			return invoicedomain.ErrInvalidCustomer
		}
	}
	if len(h.productIDs) > 0 {
		count, err := s.repo.CountProducts(ctx, tx, h.businessID, h.productIDs)
		if err != nil {
			return err
		}
		if count != int64(len(h.productIDs)) {
			return invoicedomain.ErrInvalidProduct
		}
	}
	return nil
}

func (s *Service) buildItems(invoiceID snowflake.ID, items []calc.Item, now time.Time) []invoicedomain.InvoiceItem {
	out := make([]invoicedomain.InvoiceItem, 0, len(items))
	for i, item := range items {
		row := invoicedomain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Position:    i,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			CreatedAt:   now,
		}
		if item.ProductRef != nil {
			ref := snowflake.ID(*item.ProductRef)
			row.ProductID = &ref
		}
		out = append(out, row)
	}
	return out
}

func (s *Service) load(ctx context.Context, tx *gorm.DB, businessID, id snowflake.ID) (invoicedomain.Invoice, error) {
	item, err := s.repo.FindByID(ctx, tx, businessID, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) businessIDFromContext(ctx context.Context, bodyID string) (snowflake.ID, error) {
	businessID, ok := businesscontext.BusinessIDFromContext(ctx)
	if !ok {
		return 0, invoicedomain.ErrInvalidBusiness
	}
	if raw := strings.TrimSpace(bodyID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed != businessID {
			return 0, invoicedomain.ErrInvalidBusiness
		}
	}
	return businessID, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
