package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin      = "Admin"
	RoleHOD        = "HOD" // chief accountant, approves invoices
	RoleAccountant = "Accountant"
	RoleSales      = "Sale"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:20;default:'Accountant'" json:"role"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// CanApprove reports whether the role may approve invoices awaiting approval.
func CanApprove(role string) bool {
	return role == RoleHOD || role == RoleAdmin
}
