package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client is a customer. Due and PaidAmount are running balances moved by
// invoices, conversions and payments.
type Client struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_client_company_email"`
	CompanyName string    `gorm:"not null"`
	FirstName   string
	LastName    string
	Email       string `gorm:"not null;uniqueIndex:idx_client_company_email"`
	Phone       string
	Address     string
	Due         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Billboards []Billboard `gorm:"many2many:client_billboards"`
}

func (c Client) Balance() (due, paid decimal.Decimal) { return c.Due, c.PaidAmount }
