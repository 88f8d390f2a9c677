package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entry used to fill invoice rows.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Code      string         `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Unit      string         `gorm:"size:50;not null" json:"unit"`
	Price     int64          `gorm:"not null;default:0" json:"price"`
	VATRate   VATRate        `gorm:"not null;default:10" json:"vat_rate"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}
