package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant. Every other record carries its ID.
// The *Number counters hold the last reference issued per document type.
type Company struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name     string    `gorm:"uniqueIndex;not null"`
	Email    string    `gorm:"not null"`
	Phone    string
	Address  string
	City     string
	Country  string
	Currency string  `gorm:"not null;default:'XAF'"`
	Taxes    TaxList `gorm:"type:text"`
	LogoPath *string

	InvoicePrefix       string `gorm:"not null;default:'FAC'"`
	QuotePrefix         string `gorm:"not null;default:'DEV'"`
	DeliveryNotePrefix  string `gorm:"not null;default:'BL'"`
	PurchaseOrderPrefix string `gorm:"not null;default:'BC'"`
	InvoiceNumber       int    `gorm:"not null;default:0"`
	QuoteNumber         int    `gorm:"not null;default:0"`
	DeliveryNoteNumber  int    `gorm:"not null;default:0"`
	PurchaseOrderNumber int    `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
