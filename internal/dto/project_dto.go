package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProjectRequest struct {
	Name     string          `json:"name"     validate:"required,max=150"`
	ClientID *string         `json:"clientId" validate:"omitempty,uuid"`
	Amount   decimal.Decimal `json:"amount"   validate:"min=0"`
	Deadline *time.Time      `json:"deadline"`
}

type ProjectStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=TODO IN_PROGRESS DONE BLOCKED"`
}

type ProjectResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ClientID  *string         `json:"clientId,omitempty"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Deadline  *time.Time      `json:"deadline,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
