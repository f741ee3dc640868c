package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemInput struct {
	ItemType         string          `json:"itemType"     validate:"required,oneof=billboard product"`
	Name             string          `json:"name"         validate:"required,max=200"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"        validate:"min=0"`
	Quantity         int             `json:"quantity"     validate:"required,min=1"`
	Discount         decimal.Decimal `json:"discount"     validate:"min=0"`
	DiscountType     string          `json:"discountType" validate:"omitempty,oneof=money purcent"`
	HasTax           bool            `json:"hasTax"`
	Currency         string          `json:"currency"`
	BillboardID      *string         `json:"billboardId"      validate:"omitempty,uuid"`
	ProductServiceID *string         `json:"productServiceId" validate:"omitempty,uuid"`
	LocationStart    *time.Time      `json:"locationStart"`
	LocationEnd      *time.Time      `json:"locationEnd"`
}

// CreateDocumentRequest carries totals computed by the caller; they are
// stored as received. ClientID is required for quotes, delivery notes and
// invoices, SupplierID for purchase orders.
type CreateDocumentRequest struct {
	ClientID     string          `json:"clientId"     validate:"omitempty,uuid"`
	SupplierID   string          `json:"supplierId"   validate:"omitempty,uuid"`
	ProjectID    *string         `json:"projectId"    validate:"omitempty,uuid"`
	TotalHT      decimal.Decimal `json:"totalHT"      validate:"min=0"`
	TotalTTC     decimal.Decimal `json:"totalTTC"     validate:"min=0"`
	Discount     decimal.Decimal `json:"discount"     validate:"min=0"`
	DiscountType string          `json:"discountType" validate:"omitempty,oneof=money purcent"`
	AmountType   string          `json:"amountType"   validate:"required,oneof=HT TTC"`
	PaymentLimit *time.Time      `json:"paymentLimit"`
	Note         string          `json:"note"`
	Items        []ItemInput     `json:"items"        validate:"required,min=1,dive"`
}

// Upload is a file attached to a document create request.
type Upload struct {
	Name string
	Data []byte
}

// ConversionItemOverride replaces the rental range of a billboard item
// before a quote or delivery note becomes an invoice.
type ConversionItemOverride struct {
	ItemID        string    `json:"itemId"        validate:"required,uuid"`
	LocationStart time.Time `json:"locationStart" validate:"required"`
	LocationEnd   time.Time `json:"locationEnd"   validate:"required"`
}

type ConvertRequest struct {
	Items []ConversionItemOverride `json:"items" validate:"omitempty,dive"`
}

type SendDocumentRequest struct {
	To      []string `json:"to"      validate:"required,min=1,dive,email"`
	Subject string   `json:"subject" validate:"max=200"`
	Message string   `json:"message"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID               string          `json:"id"`
	ItemType         string          `json:"itemType"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	Discount         decimal.Decimal `json:"discount"`
	DiscountType     string          `json:"discountType"`
	HasTax           bool            `json:"hasTax"`
	Currency         string          `json:"currency,omitempty"`
	BillboardID      *string         `json:"billboardId,omitempty"`
	ProductServiceID *string         `json:"productServiceId,omitempty"`
	LocationStart    *time.Time      `json:"locationStart,omitempty"`
	LocationEnd      *time.Time      `json:"locationEnd,omitempty"`
	State            string          `json:"state"`
}

type DocumentResponse struct {
	ID                  string           `json:"id"`
	Kind                string           `json:"kind"`
	Reference           string           `json:"reference"`
	ClientID            string           `json:"clientId,omitempty"`
	SupplierID          string           `json:"supplierId,omitempty"`
	ProjectID           *string          `json:"projectId,omitempty"`
	TotalHT             decimal.Decimal  `json:"totalHT"`
	TotalTTC            decimal.Decimal  `json:"totalTTC"`
	Discount            decimal.Decimal  `json:"discount"`
	DiscountType        string           `json:"discountType"`
	AmountType          string           `json:"amountType"`
	PaymentLimit        *time.Time       `json:"paymentLimit,omitempty"`
	Note                string           `json:"note,omitempty"`
	Payee               *decimal.Decimal `json:"payee,omitempty"`
	IsPaid              *bool            `json:"isPaid,omitempty"`
	IsCompleted         *bool            `json:"isCompleted,omitempty"`
	FromRecordID        *string          `json:"fromRecordId,omitempty"`
	FromRecordName      string           `json:"fromRecordName,omitempty"`
	FromRecordReference string           `json:"fromRecordReference,omitempty"`
	Files               []string         `json:"files"`
	Items               []ItemResponse   `json:"items"`
	CreatedAt           time.Time        `json:"createdAt"`
}

// DeleteResult tells the caller whether a delete ran or awaits approval.
type DeleteResult struct {
	Deleted   bool   `json:"deleted"`
	Pending   bool   `json:"pending"`
	RequestID string `json:"requestId,omitempty"`
}
