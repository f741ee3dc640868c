package repository

import (
	"context"

	"atlascrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, p *model.Payment) error
	ListByInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) ([]model.Payment, error)
	ListByPurchaseOrder(ctx context.Context, companyID, poID uuid.UUID) ([]model.Payment, error)
	DeleteByInvoiceTx(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) error
	DeleteByPurchaseOrderTx(ctx context.Context, tx *gorm.DB, poID uuid.UUID) error
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) CreateTx(ctx context.Context, tx *gorm.DB, p *model.Payment) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) ListByInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND invoice_id = ?", companyID, invoiceID).
		Order("paid_at ASC, created_at ASC").Find(&out).Error
	return out, err
}

func (r *paymentRepo) ListByPurchaseOrder(ctx context.Context, companyID, poID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND purchase_order_id = ?", companyID, poID).
		Order("paid_at ASC, created_at ASC").Find(&out).Error
	return out, err
}

func (r *paymentRepo) DeleteByInvoiceTx(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) error {
	return tx.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&model.Payment{}).Error
}

func (r *paymentRepo) DeleteByPurchaseOrderTx(ctx context.Context, tx *gorm.DB, poID uuid.UUID) error {
	return tx.WithContext(ctx).Where("purchase_order_id = ?", poID).Delete(&model.Payment{}).Error
}
