package dto

import "atlascrm/internal/pricing"

// RegisterCompanyRequest creates a tenant together with its first admin.
type RegisterCompanyRequest struct {
	Name          string                  `json:"name"          validate:"required,min=2,max=150"`
	Email         string                  `json:"email"         validate:"required,email"`
	Phone         string                  `json:"phone"`
	Address       string                  `json:"address"`
	City          string                  `json:"city"`
	Country       string                  `json:"country"`
	Currency      string                  `json:"currency"      validate:"omitempty,len=3"`
	Taxes         []pricing.TaxDefinition `json:"taxes"`
	AdminName     string                  `json:"adminName"     validate:"required,min=2"`
	AdminEmail    string                  `json:"adminEmail"    validate:"required,email"`
	AdminPassword string                  `json:"adminPassword" validate:"required,min=8"`
}

type UpdateCompanyRequest struct {
	Name                string                  `json:"name"     validate:"omitempty,min=2,max=150"`
	Email               string                  `json:"email"    validate:"omitempty,email"`
	Phone               *string                 `json:"phone"`
	Address             *string                 `json:"address"`
	City                *string                 `json:"city"`
	Country             *string                 `json:"country"`
	Currency            string                  `json:"currency" validate:"omitempty,len=3"`
	Taxes               []pricing.TaxDefinition `json:"taxes"`
	InvoicePrefix       string                  `json:"invoicePrefix"       validate:"omitempty,max=10"`
	QuotePrefix         string                  `json:"quotePrefix"         validate:"omitempty,max=10"`
	DeliveryNotePrefix  string                  `json:"deliveryNotePrefix"  validate:"omitempty,max=10"`
	PurchaseOrderPrefix string                  `json:"purchaseOrderPrefix" validate:"omitempty,max=10"`
}

type CompanyResponse struct {
	ID                  string                  `json:"id"`
	Name                string                  `json:"name"`
	Email               string                  `json:"email"`
	Phone               string                  `json:"phone"`
	Address             string                  `json:"address"`
	City                string                  `json:"city"`
	Country             string                  `json:"country"`
	Currency            string                  `json:"currency"`
	Taxes               []pricing.TaxDefinition `json:"taxes"`
	HasLogo             bool                    `json:"hasLogo"`
	InvoicePrefix       string                  `json:"invoicePrefix"`
	QuotePrefix         string                  `json:"quotePrefix"`
	DeliveryNotePrefix  string                  `json:"deliveryNotePrefix"`
	PurchaseOrderPrefix string                  `json:"purchaseOrderPrefix"`
}

type RegisterCompanyResponse struct {
	Company CompanyResponse `json:"company"`
	Admin   UserResponse    `json:"admin"`
}
