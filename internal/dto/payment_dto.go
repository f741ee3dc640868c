package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest settles part or all of an invoice or purchase order.
// With IsPaid the remaining balance is settled whatever Amount says.
// Category, Nature, Source and Allocation only apply to purchase orders.
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"      validate:"min=0"`
	IsPaid      bool            `json:"isPaid"`
	Date        time.Time       `json:"date"        validate:"required"`
	Mode        string          `json:"mode"        validate:"required,max=50"`
	Information string          `json:"information" validate:"max=500"`
	Category    string          `json:"category"    validate:"max=100"`
	Nature      string          `json:"nature"      validate:"max=100"`
	Source      string          `json:"source"      validate:"max=100"`
	Allocation  string          `json:"allocation"  validate:"max=100"`
}

type PaymentResponse struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"documentId"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAt      time.Time       `json:"paidAt"`
	Mode        string          `json:"mode"`
	Information string          `json:"information,omitempty"`
	Payee       decimal.Decimal `json:"payee"`
	Remaining   decimal.Decimal `json:"remaining"`
	IsPaid      bool            `json:"isPaid"`
}
