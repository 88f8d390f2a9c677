package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	PaymentCashOrTransfer = "TM/CK"
	PaymentCash           = "TM"
	PaymentTransfer       = "CK"
)

// ValidPaymentMethod reports whether m is one of the accepted payment method codes.
func ValidPaymentMethod(m string) bool {
	return m == PaymentCashOrTransfer || m == PaymentCash || m == PaymentTransfer
}

type Invoice struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	Serial            string         `gorm:"size:20;index" json:"serial"`
	InvoiceNumber     int64          `gorm:"default:0;index" json:"invoice_number"`
	Status            InvoiceStatus  `gorm:"not null;default:1;index" json:"status"`
	InvoiceType       InvoiceType    `gorm:"not null;default:1" json:"invoice_type"`
	OriginalInvoiceID *uint          `gorm:"index" json:"original_invoice_id,omitempty"`
	Reason            string         `gorm:"type:text" json:"reason,omitempty"`
	Signed            bool           `gorm:"default:false" json:"signed"`
	DigitalSignature  string         `gorm:"type:text" json:"-"`
	SignedAt          *time.Time     `json:"signed_at,omitempty"`
	TaxStatus         TaxStatus      `gorm:"default:0" json:"tax_status"`
	TaxCode           string         `gorm:"size:64" json:"tax_code,omitempty"`
	IssuedAt          *time.Time     `json:"issued_at,omitempty"`
	CustomerType      CustomerType   `gorm:"not null;default:2" json:"customer_type"`
	BuyerName         string         `gorm:"size:255" json:"buyer_name"`
	BuyerCompany      string         `gorm:"size:255" json:"buyer_company"`
	BuyerTaxCode      string         `gorm:"size:20" json:"buyer_tax_code"`
	BuyerAddress      string         `gorm:"size:500" json:"buyer_address"`
	BuyerEmail        string         `gorm:"size:255" json:"buyer_email"`
	BuyerPhone        string         `gorm:"size:20" json:"buyer_phone"`
	PaymentMethod     string         `gorm:"size:10;default:'TM/CK'" json:"payment_method"`
	Notes             string         `gorm:"type:text" json:"notes"`
	CreatedBy         uint           `json:"created_by"`

	// Cached totals, refreshed on every save.
	SubtotalAmount int64 `json:"subtotal_amount"`
	DiscountAmount int64 `json:"discount_amount"`
	TaxAmount      int64 `json:"tax_amount"`
	TotalAmount    int64 `json:"total_amount"`

	Items []LineItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

// TableName overrides the table name
func (Invoice) TableName() string {
	return "invoices"
}

// HasInvoiceNumber reports whether signing has assigned a legal number.
func (i *Invoice) HasInvoiceNumber() bool {
	return i.InvoiceNumber > 0
}

// BuyerDisplayName is the company name for business buyers and the person's name otherwise.
func (i *Invoice) BuyerDisplayName() string {
	if i.CustomerType == CustomerBusiness {
		return i.BuyerCompany
	}
	return i.BuyerName
}

// FormatInvoiceNumber renders n the way it is printed on the invoice.
func FormatInvoiceNumber(n int64) string {
	if n <= 0 {
		return "<Chưa cấp số>"
	}
	return fmt.Sprintf("%07d", n)
}
