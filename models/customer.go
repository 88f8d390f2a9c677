package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	CustomerType CustomerType   `gorm:"not null;default:2" json:"customer_type"`
	TaxCode      string         `gorm:"uniqueIndex;size:20;not null" json:"tax_code"`
	CompanyName  string         `gorm:"size:255" json:"company_name"`
	ContactName  string         `gorm:"size:255" json:"contact_name"`
	Address      string         `gorm:"size:500" json:"address"`
	Email        string         `gorm:"size:255" json:"email"`
	Phone        string         `gorm:"size:20" json:"phone"`
}

// TableName overrides the table name
func (Customer) TableName() string {
	return "customers"
}
