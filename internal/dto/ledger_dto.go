package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryRequest creates a receipt or a dibursement that is not tied to a document.
type LedgerEntryRequest struct {
	Date          time.Time       `json:"date"          validate:"required"`
	Amount        decimal.Decimal `json:"amount"        validate:"gt=0"`
	Mode          string          `json:"mode"          validate:"required,max=50"`
	Information   string          `json:"information"   validate:"max=500"`
	Category      string          `json:"category"      validate:"required,max=100"`
	Nature        string          `json:"nature"        validate:"required,max=100"`
	Source        string          `json:"source"        validate:"max=100"`
	Allocation    string          `json:"allocation"    validate:"max=100"`
	CounterpartID *string         `json:"counterpartId" validate:"omitempty,uuid"`
}

type LedgerFilter struct {
	Pagination
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to"   time_format:"2006-01-02"`
}

type LedgerEntryResponse struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"` // receipt | dibursement
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Mode          string          `json:"mode"`
	Information   string          `json:"information,omitempty"`
	Category      string          `json:"category"`
	Nature        string          `json:"nature"`
	Source        string          `json:"source,omitempty"`
	Allocation    string          `json:"allocation,omitempty"`
	CounterpartID *string         `json:"counterpartId,omitempty"`
	DocumentID    *string         `json:"documentId,omitempty"`
	PaymentID     *string         `json:"paymentId,omitempty"`
}
