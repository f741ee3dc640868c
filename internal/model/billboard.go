package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Billboard struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_billboard_company_ref"`
	Reference   string          `gorm:"not null;uniqueIndex:idx_billboard_company_ref"`
	Name        string          `gorm:"not null"`
	City        string
	Dimensions  string
	RentalPrice decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	HasTax      bool            `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
