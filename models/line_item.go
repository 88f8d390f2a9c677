package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VATRate is a VAT percentage. Only the legal rates are accepted.
type VATRate int

const (
	VAT0  VATRate = 0
	VAT5  VATRate = 5
	VAT8  VATRate = 8
	VAT10 VATRate = 10
)

func (r VATRate) Valid() bool {
	switch r {
	case VAT0, VAT5, VAT8, VAT10:
		return true
	}
	return false
}

type LineItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InvoiceID      uint            `gorm:"index;not null" json:"invoice_id"`
	RowID          string          `gorm:"size:36;not null" json:"row_id"`
	Position       int             `json:"position"`
	ProductID      *uint           `json:"product_id,omitempty"`
	Code           string          `gorm:"size:50" json:"code"`
	Name           string          `gorm:"size:255" json:"name"`
	Unit           string          `gorm:"size:50" json:"unit"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"quantity"`
	UnitPrice      int64           `gorm:"not null;default:0" json:"unit_price"`
	DiscountRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount_rate"`
	DiscountAmount int64           `gorm:"not null;default:0" json:"discount_amount"`
	VATRate        VATRate         `gorm:"not null;default:10" json:"vat_rate"`
	VATAmount      int64           `gorm:"not null;default:0" json:"vat_amount"`
	LineTotal      int64           `gorm:"not null;default:0" json:"line_total"`
}

// TableName overrides the table name
func (LineItem) TableName() string {
	return "invoice_items"
}

// NewLineItem returns the row added by "add line": quantity 1, price 0, 10% VAT.
func NewLineItem() LineItem {
	return LineItem{
		RowID:        uuid.NewString(),
		Quantity:     decimal.NewFromInt(1),
		DiscountRate: decimal.Zero,
		VATRate:      VAT10,
	}
}

// IsBlank reports whether the row has not been filled with any goods yet.
func (l *LineItem) IsBlank() bool {
	return l.ProductID == nil && l.Code == "" && l.Name == ""
}
