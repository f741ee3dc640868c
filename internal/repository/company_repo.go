package repository

import (
	"context"
	"fmt"

	"atlascrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	ExistsName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, c *model.Company) error
	// NextReferenceTx bumps the per-kind counter under a row lock and
	// returns the formatted reference, e.g. "FAC-0042".
	NextReferenceTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, kind string) (string, error)
	DB() *gorm.DB
}

type companyRepo struct{ db *gorm.DB }

func NewCompanyRepository(db *gorm.DB) CompanyRepository { return &companyRepo{db: db} }

func (r *companyRepo) DB() *gorm.DB { return r.db }

func (r *companyRepo) Create(ctx context.Context, tx *gorm.DB, c *model.Company) error {
	return tx.WithContext(ctx).Create(c).Error
}

func (r *companyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var c model.Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return &c, err
}

func (r *companyRepo) ExistsName(ctx context.Context, name string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Company{}).Where("LOWER(name) = LOWER(?)", name).Count(&n).Error
	return n > 0, err
}

func (r *companyRepo) Update(ctx context.Context, c *model.Company) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *companyRepo) NextReferenceTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, kind string) (string, error) {
	var c model.Company
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ?", companyID).First(&c).Error; err != nil {
		return "", err
	}

	var prefix, column string
	var next int
	switch kind {
	case model.KindInvoice:
		prefix, column, next = c.InvoicePrefix, "invoice_number", c.InvoiceNumber+1
	case model.KindQuote:
		prefix, column, next = c.QuotePrefix, "quote_number", c.QuoteNumber+1
	case model.KindDeliveryNote:
		prefix, column, next = c.DeliveryNotePrefix, "delivery_note_number", c.DeliveryNoteNumber+1
	case model.KindPurchaseOrder:
		prefix, column, next = c.PurchaseOrderPrefix, "purchase_order_number", c.PurchaseOrderNumber+1
	default:
		return "", fmt.Errorf("unknown document kind %q", kind)
	}

	if err := tx.WithContext(ctx).Model(&model.Company{}).Where("id = ?", companyID).Update(column, next).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, next), nil
}
