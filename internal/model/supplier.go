package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier mirrors Client on the purchasing side.
type Supplier struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_company_email"`
	CompanyName string    `gorm:"not null"`
	FirstName   string
	LastName    string
	Email       string `gorm:"not null;uniqueIndex:idx_supplier_company_email"`
	Phone       string
	Address     string
	Due         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Supplier) Balance() (due, paid decimal.Decimal) { return s.Due, s.PaidAmount }
