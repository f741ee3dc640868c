package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records each change of a product/service quantity.
type StockMovement struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductServiceID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind             string     `gorm:"not null"` // "invoice" | "conversion" | "adjustment" | "restore"
	Quantity         int        `gorm:"not null"` // positive = in, negative = out
	QuantityBefore   int        `gorm:"not null"`
	QuantityAfter    int        `gorm:"not null"`
	Reason           string
	ReferenceID      *uuid.UUID `gorm:"type:uuid"` // invoice id when applicable
	CreatedAt        time.Time

	ProductService *ProductService `gorm:"foreignKey:ProductServiceID"`
}
