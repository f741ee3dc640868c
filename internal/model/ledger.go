package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionCategory groups ledger entries, e.g. "Règlement client".
type TransactionCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_company_name"`
	Name      string    `gorm:"not null;uniqueIndex:idx_category_company_name"`
	CreatedAt time.Time
}

// TransactionNature refines a category, e.g. "Facture". Names are unique
// within a category.
type TransactionNature struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_nature_company_category_name"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_nature_company_category_name"`
	Name       string    `gorm:"not null;uniqueIndex:idx_nature_company_category_name"`
	CreatedAt  time.Time
}

// Receipt is an incoming ledger entry.
type Receipt struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date        time.Time       `gorm:"not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Mode        string          `gorm:"not null"`
	Information string
	CategoryID  uuid.UUID  `gorm:"type:uuid;not null"`
	NatureID    uuid.UUID  `gorm:"type:uuid;not null"`
	ClientID    *uuid.UUID `gorm:"type:uuid;index"`
	InvoiceID   *uuid.UUID `gorm:"type:uuid;index"`
	PaymentID   *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time

	Category *TransactionCategory `gorm:"foreignKey:CategoryID"`
	Nature   *TransactionNature   `gorm:"foreignKey:NatureID"`
}

// Dibursement is an outgoing ledger entry. Source names the cash account
// the money left from, Allocation what it was spent on.
type Dibursement struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date            time.Time       `gorm:"not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Mode            string          `gorm:"not null"`
	Information     string
	Source          string
	Allocation      string
	CategoryID      uuid.UUID  `gorm:"type:uuid;not null"`
	NatureID        uuid.UUID  `gorm:"type:uuid;not null"`
	SupplierID      *uuid.UUID `gorm:"type:uuid;index"`
	PurchaseOrderID *uuid.UUID `gorm:"type:uuid;index"`
	PaymentID       *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt       time.Time

	Category *TransactionCategory `gorm:"foreignKey:CategoryID"`
	Nature   *TransactionNature   `gorm:"foreignKey:NatureID"`
}
