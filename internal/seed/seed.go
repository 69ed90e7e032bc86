// Package seed prepares rows the service expects to exist before serving traffic.
package seed

import (
	"context"
	"errors"
	"time"

	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureInvoiceSequence creates the global numbering counter if it is missing.
// A fresh counter continues from count(invoices)+1 so existing data keeps its numbering.
func EnsureInvoiceSequence(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&invoicedomain.Invoice{}).Count(&existing).Error; err != nil {
		return err
	}

	seq := invoicedomain.InvoiceSequence{
		Scope:      invoicedomain.GlobalSequenceScope,
		NextNumber: existing + 1,
		UpdatedAt:  time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seq).Error
}
