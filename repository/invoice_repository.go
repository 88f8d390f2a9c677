// Package repository persists invoices, catalog products and customers with gorm.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("invoice status was changed by another request")
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts inv with its lines. Totals and line positions are recomputed first.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	prepare(inv)
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return &inv, nil
}

// Save writes the header and replaces the stored lines with inv.Items.
func (r *InvoiceRepository) Save(ctx context.Context, inv *models.Invoice) error {
	prepare(inv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("clear invoice items: %w", err)
		}
		if len(inv.Items) == 0 {
			return nil
		}
		for i := range inv.Items {
			inv.Items[i].ID = 0
			inv.Items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&inv.Items).Error; err != nil {
			return fmt.Errorf("save invoice items: %w", err)
		}
		return nil
	})
}

// UpdateStatus moves the invoice from one status to another only if it is still in
// from. ErrStatusConflict means another request changed it first.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id uint, from, to models.InvoiceStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("update invoice %d status: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check invoice %d: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStatusConflict
}

// ListFilter narrows List. A nil Status returns every status.
type ListFilter struct {
	Status *models.InvoiceStatus
	Limit  int
	Offset int
}

// List returns invoice headers, newest first, without their lines.
func (r *InvoiceRepository) List(ctx context.Context, f ListFilter) ([]models.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{}).Order("id DESC")
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// NextInvoiceNumber reserves the next number of serial. Numbers start at 1.
func (r *InvoiceRepository) NextInvoiceNumber(ctx context.Context, serial string) (int64, error) {
	var seq models.InvoiceSequence
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InvoiceSequence{}).
			Where("serial = ?", serial).
			UpdateColumn("last_number", gorm.Expr("last_number + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			seq = models.InvoiceSequence{Serial: serial, LastNumber: 1}
			return tx.Create(&seq).Error
		}
		return tx.First(&seq, "serial = ?", serial).Error
	})
	if err != nil {
		return 0, fmt.Errorf("next invoice number for %s: %w", serial, err)
	}
	return seq.LastNumber, nil
}

func prepare(inv *models.Invoice) {
	for i := range inv.Items {
		inv.Items[i].Position = i + 1
	}
	calc.ApplyTotals(inv)
}
