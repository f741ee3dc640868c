package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one settlement applied to an invoice or a purchase order.
type Payment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID       *uuid.UUID      `gorm:"type:uuid;index"`
	PurchaseOrderID *uuid.UUID      `gorm:"type:uuid;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PaidAt          time.Time       `gorm:"not null"`
	Mode            string          `gorm:"not null"` // "cash" | "check" | "bank-transfer" | ...
	Information     string
	CreatedAt       time.Time
}
