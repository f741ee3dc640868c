package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService is a sellable product or service with an available quantity.
// Kind: "PRODUCT" | "SERVICE"
type ProductService struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_company_ref"`
	Reference   string          `gorm:"not null;uniqueIndex:idx_product_company_ref"`
	Designation string          `gorm:"not null"`
	Kind        string          `gorm:"type:varchar(10);not null;default:'PRODUCT'"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Quantity    int             `gorm:"not null;default:0"`
	HasTax      bool            `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
