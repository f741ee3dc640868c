package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document kinds, used in routes, storage folders and deletion requests.
const (
	KindQuote         = "quote"
	KindDeliveryNote  = "delivery_note"
	KindInvoice       = "invoice"
	KindPurchaseOrder = "purchase_order"
)

// Item states.
const (
	ItemStatePending  = "PENDING"
	ItemStateApproved = "APPROVED"
)

// Item types.
const (
	ItemTypeBillboard = "billboard"
	ItemTypeProduct   = "product"
)

// DocumentHeader holds the columns shared by quotes, delivery notes,
// invoices and purchase orders. Totals are stored as the caller computed them.
type DocumentHeader struct {
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Reference    string          `gorm:"not null;index"`
	ProjectID    *uuid.UUID      `gorm:"type:uuid;index"`
	TotalHT      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TotalTTC     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Discount     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	DiscountType string          `gorm:"type:varchar(10);not null;default:'purcent'"`
	AmountType   string          `gorm:"type:varchar(3);not null;default:'TTC'"`
	PaymentLimit *time.Time
	Note         string
	Files        StringList `gorm:"type:text"`
}

type Invoice struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentHeader
	ClientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Payee    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	IsPaid   bool            `gorm:"not null;default:false"`

	// Set when the invoice was converted from a quote or delivery note.
	FromRecordID        *uuid.UUID `gorm:"type:uuid"`
	FromRecordName      string
	FromRecordReference string

	CreatedAt time.Time
	UpdatedAt time.Time

	Client   *Client   `gorm:"foreignKey:ClientID"`
	Project  *Project  `gorm:"foreignKey:ProjectID"`
	Items    []Item    `gorm:"foreignKey:InvoiceID"`
	Payments []Payment `gorm:"foreignKey:InvoiceID"`
}

func (Invoice) Kind() string           { return KindInvoice }
func (Invoice) ItemForeignKey() string { return "invoice_id" }

type Quote struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentHeader
	ClientID    uuid.UUID `gorm:"type:uuid;not null;index"`
	IsCompleted bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Client  *Client  `gorm:"foreignKey:ClientID"`
	Project *Project `gorm:"foreignKey:ProjectID"`
	Items   []Item   `gorm:"foreignKey:QuoteID"`
}

func (Quote) Kind() string           { return KindQuote }
func (Quote) ItemForeignKey() string { return "quote_id" }

type DeliveryNote struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentHeader
	ClientID    uuid.UUID `gorm:"type:uuid;not null;index"`
	IsCompleted bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Client  *Client  `gorm:"foreignKey:ClientID"`
	Project *Project `gorm:"foreignKey:ProjectID"`
	Items   []Item   `gorm:"foreignKey:DeliveryNoteID"`
}

func (DeliveryNote) Kind() string           { return KindDeliveryNote }
func (DeliveryNote) ItemForeignKey() string { return "delivery_note_id" }

type PurchaseOrder struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentHeader
	SupplierID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Payee      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	IsPaid     bool            `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
	Project  *Project  `gorm:"foreignKey:ProjectID"`
	Items    []Item    `gorm:"foreignKey:PurchaseOrderID"`
	Payments []Payment `gorm:"foreignKey:PurchaseOrderID"`
}

func (PurchaseOrder) Kind() string           { return KindPurchaseOrder }
func (PurchaseOrder) ItemForeignKey() string { return "purchase_order_id" }

// Item is a document line. Exactly one of the document foreign keys is set.
// Billboard lines carry a rental range; product lines consume Quantity units.
type Item struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	InvoiceID       *uuid.UUID `gorm:"type:uuid;index"`
	QuoteID         *uuid.UUID `gorm:"type:uuid;index"`
	DeliveryNoteID  *uuid.UUID `gorm:"type:uuid;index"`
	PurchaseOrderID *uuid.UUID `gorm:"type:uuid;index"`

	ItemType     string `gorm:"type:varchar(10);not null"`
	Name         string `gorm:"not null"`
	Description  string
	Price        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Quantity     int             `gorm:"not null;default:1"`
	Discount     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	DiscountType string          `gorm:"type:varchar(10);not null;default:'purcent'"`
	HasTax       bool            `gorm:"not null"`
	Currency     string

	BillboardID      *uuid.UUID `gorm:"type:uuid;index"`
	ProductServiceID *uuid.UUID `gorm:"type:uuid;index"`
	LocationStart    *time.Time
	LocationEnd      *time.Time
	State            string `gorm:"type:varchar(10);not null;default:'PENDING'"`

	CreatedAt time.Time
}
