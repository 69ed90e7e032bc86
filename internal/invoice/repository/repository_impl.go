package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/invoice/calc"
	"github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"github.com/smallbiznis/invoicepos/internal/seed"
	"github.com/smallbiznis/invoicepos/pkg/db/option"
	"gorm.io/gorm"
)

var errSequenceUnavailable = errors.New("invoice sequence row unavailable")

// advanceScanLimit caps how many candidate numbers are inspected when skipping taken ones.
const advanceScanLimit = 50

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// NextNumber increments the counter before reading it so the row lock is held
// from the first statement; concurrent callers queue on that lock.
func (r *repo) NextNumber(ctx context.Context, db *gorm.DB) (int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		result := db.WithContext(ctx).Exec(
			`UPDATE invoice_sequences SET next_number = next_number + 1, updated_at = ? WHERE scope = ?`,
			time.Now().UTC(),
			domain.GlobalSequenceScope,
		)
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected == 1 {
			var next int64
			err := db.WithContext(ctx).Raw(
				`SELECT next_number FROM invoice_sequences WHERE scope = ?`,
				domain.GlobalSequenceScope,
			).Scan(&next).Error
			if err != nil {
				return 0, err
			}
			return next - 1, nil
		}

		if err := seed.EnsureInvoiceSequence(ctx, db); err != nil {
			return 0, err
		}
	}
	return 0, errSequenceUnavailable
}

// AdvancePastTaken moves the counter beyond the highest generated-style number
// already stored. It never moves the counter backwards.
func (r *repo) AdvancePastTaken(ctx context.Context, db *gorm.DB) (int64, error) {
	var numbers []string
	err := db.WithContext(ctx).Raw(
		`SELECT number FROM invoices WHERE number LIKE ? ORDER BY LENGTH(number) DESC, number DESC LIMIT ?`,
		calc.NumberPrefix+"%",
		advanceScanLimit,
	).Scan(&numbers).Error
	if err != nil {
		return 0, err
	}

	var highest int64
	for _, number := range numbers {
		if seq, ok := calc.ParseNumber(number); ok && seq > highest {
			highest = seq
		}
	}
	if highest == 0 {
		return 0, nil
	}

	err = db.WithContext(ctx).Exec(
		`UPDATE invoice_sequences SET next_number = ?, updated_at = ? WHERE scope = ? AND next_number <= ?`,
		highest+1,
		time.Now().UTC(),
		domain.GlobalSequenceScope,
		highest,
	).Error
	if err != nil {
		return 0, err
	}
	return highest, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	if err := db.WithContext(ctx).Omit("Items").Create(invoice).Error; err != nil {
		return err
	}
	return insertItems(ctx, db, invoice.Items)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*domain.Invoice, error) {
	var invoices []*domain.Invoice
	err := withItems(db.WithContext(ctx)).
		Where("business_id = ? AND id = ?", businessID, id).
		Limit(1).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return invoices[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter domain.ListInvoiceFilter) ([]*domain.Invoice, error) {
	stmt := withItems(db.WithContext(ctx)).
		Model(&domain.Invoice{}).
		Where("business_id = ?", businessID)

	conditions := []option.Condition{}
	if filter.Status != "" {
		conditions = append(conditions, option.Condition{Field: "status", Operator: option.EQ, Value: filter.Status})
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, option.Condition{Field: "customer_id", Operator: option.EQ, Value: *filter.CustomerID})
	}
	if filter.Start != nil {
		conditions = append(conditions, option.Condition{Field: "date", Operator: option.GTE, Value: *filter.Start})
	}
	if filter.End != nil {
		conditions = append(conditions, option.Condition{Field: "date", Operator: option.LTE, Value: *filter.End})
	}
	if filter.MinTotal != nil {
		conditions = append(conditions, option.Condition{Field: "total", Operator: option.GTE, Value: *filter.MinTotal})
	}
	if filter.MaxTotal != nil {
		conditions = append(conditions, option.Condition{Field: "total", Operator: option.LTE, Value: *filter.MaxTotal})
	}
	for _, cond := range conditions {
		stmt = option.ApplyOperator(cond).Apply(stmt)
	}

	var invoices []*domain.Invoice
	if err := stmt.Order("id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Update rewrites the header and replaces every item.
func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("business_id = ? AND id = ?", invoice.BusinessID, invoice.ID).
		Updates(map[string]any{
			"customer_id": invoice.CustomerID,
			"date":        invoice.Date,
			"due_date":    invoice.DueDate,
			"notes":       invoice.Notes,
			"subtotal":    invoice.Subtotal,
			"tax":         invoice.Tax,
			"total":       invoice.Total,
			"status":      invoice.Status,
			"updated_at":  invoice.UpdatedAt,
		}).Error
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec(`DELETE FROM invoice_items WHERE invoice_id = ?`, invoice.ID).Error; err != nil {
		return err
	}
	return insertItems(ctx, db, invoice.Items)
}

// Delete removes items before the invoice itself.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (int64, error) {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE business_id = ? AND id = ?)`,
		businessID,
		id,
	).Error
	if err != nil {
		return 0, err
	}

	result := db.WithContext(ctx).Exec(`DELETE FROM invoices WHERE business_id = ? AND id = ?`, businessID, id)
	return result.RowsAffected, result.Error
}

func (r *repo) CustomerExists(ctx context.Context, db *gorm.DB, businessID, customerID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM customers WHERE business_id = ? AND id = ?`,
		businessID,
		customerID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CountProducts(ctx context.Context, db *gorm.DB, businessID snowflake.ID, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM products WHERE business_id = ? AND id IN ?`,
		businessID,
		ids,
	).Scan(&count).Error
	return count, err
}

func insertItems(ctx context.Context, db *gorm.DB, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	})
}
