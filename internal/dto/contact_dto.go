package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContactRequest is shared by clients and suppliers.
type ContactRequest struct {
	CompanyName string `json:"companyName" validate:"required,min=2,max=150"`
	FirstName   string `json:"firstName"   validate:"max=100"`
	LastName    string `json:"lastName"    validate:"max=100"`
	Email       string `json:"email"       validate:"required,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

type ContactResponse struct {
	ID           string          `json:"id"`
	CompanyName  string          `json:"companyName"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Due          decimal.Decimal `json:"due"`
	PaidAmount   decimal.Decimal `json:"paidAmount"`
	BillboardIDs []string        `json:"billboardIds,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}
