package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillboardRequest struct {
	Reference   string          `json:"reference"   validate:"required,max=50"`
	Name        string          `json:"name"        validate:"required,max=150"`
	City        string          `json:"city"`
	Dimensions  string          `json:"dimensions"`
	RentalPrice decimal.Decimal `json:"rentalPrice" validate:"min=0"`
	HasTax      *bool           `json:"hasTax"`
}

type BillboardResponse struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	Name        string          `json:"name"`
	City        string          `json:"city"`
	Dimensions  string          `json:"dimensions"`
	RentalPrice decimal.Decimal `json:"rentalPrice"`
	HasTax      bool            `json:"hasTax"`
}

type ProductServiceRequest struct {
	Reference   string          `json:"reference"   validate:"required,max=50"`
	Designation string          `json:"designation" validate:"required,max=200"`
	Kind        string          `json:"kind"        validate:"omitempty,oneof=PRODUCT SERVICE"`
	UnitPrice   decimal.Decimal `json:"unitPrice"   validate:"min=0"`
	Quantity    int             `json:"quantity"    validate:"min=0"`
	HasTax      *bool           `json:"hasTax"`
}

type ProductServiceResponse struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	Designation string          `json:"designation"`
	Kind        string          `json:"kind"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	HasTax      bool            `json:"hasTax"`
}

// StockAdjustmentRequest corrects a product quantity by Delta units.
type StockAdjustmentRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

type StockMovementResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	Reason         string    `json:"reason,omitempty"`
	ReferenceID    *string   `json:"referenceId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
