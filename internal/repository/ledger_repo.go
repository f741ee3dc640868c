package repository

import (
	"context"
	"strings"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository interface {
	// GetOrCreateCategoryTx and GetOrCreateNatureTx are idempotent under
	// concurrency: insert-or-ignore on their unique key, then read back.
	// Categories are keyed on (company_id, name), natures on
	// (company_id, category_id, name).
	GetOrCreateCategoryTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, name string) (*model.TransactionCategory, error)
	GetOrCreateNatureTx(ctx context.Context, tx *gorm.DB, companyID, categoryID uuid.UUID, name string) (*model.TransactionNature, error)

	CreateReceiptTx(ctx context.Context, tx *gorm.DB, r *model.Receipt) error
	CreateDibursementTx(ctx context.Context, tx *gorm.DB, d *model.Dibursement) error
	FindReceipt(ctx context.Context, companyID, id uuid.UUID) (*model.Receipt, error)
	FindDibursement(ctx context.Context, companyID, id uuid.UUID) (*model.Dibursement, error)
	ListReceipts(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]model.Receipt, int64, error)
	ListDibursements(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]model.Dibursement, int64, error)
	DeleteReceiptTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) error
	DeleteDibursementTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) error
	DeleteByInvoiceTx(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) error
	DeleteByPurchaseOrderTx(ctx context.Context, tx *gorm.DB, poID uuid.UUID) error
	DB() *gorm.DB
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) DB() *gorm.DB { return r.db }

func (r *ledgerRepo) GetOrCreateCategoryTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, name string) (*model.TransactionCategory, error) {
	name = strings.TrimSpace(name)
	row := model.TransactionCategory{CompanyID: companyID, Name: name}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	var out model.TransactionCategory
	err := tx.WithContext(ctx).Where("company_id = ? AND name = ?", companyID, name).First(&out).Error
	return &out, err
}

func (r *ledgerRepo) GetOrCreateNatureTx(ctx context.Context, tx *gorm.DB, companyID, categoryID uuid.UUID, name string) (*model.TransactionNature, error) {
	name = strings.TrimSpace(name)
	row := model.TransactionNature{CompanyID: companyID, CategoryID: categoryID, Name: name}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	var out model.TransactionNature
	err := tx.WithContext(ctx).
		Where("company_id = ? AND category_id = ? AND name = ?", companyID, categoryID, name).
		First(&out).Error
	return &out, err
}

func (r *ledgerRepo) CreateReceiptTx(ctx context.Context, tx *gorm.DB, rc *model.Receipt) error {
	return tx.WithContext(ctx).Create(rc).Error
}

func (r *ledgerRepo) CreateDibursementTx(ctx context.Context, tx *gorm.DB, d *model.Dibursement) error {
	return tx.WithContext(ctx).Create(d).Error
}

func (r *ledgerRepo) FindReceipt(ctx context.Context, companyID, id uuid.UUID) (*model.Receipt, error) {
	var rc model.Receipt
	err := r.db.WithContext(ctx).Preload("Category").Preload("Nature").
		Where("id = ? AND company_id = ?", id, companyID).First(&rc).Error
	return &rc, err
}

func (r *ledgerRepo) FindDibursement(ctx context.Context, companyID, id uuid.UUID) (*model.Dibursement, error) {
	var d model.Dibursement
	err := r.db.WithContext(ctx).Preload("Category").Preload("Nature").
		Where("id = ? AND company_id = ?", id, companyID).First(&d).Error
	return &d, err
}

func (r *ledgerRepo) ListReceipts(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]model.Receipt, int64, error) {
	q := dateRange(r.db.WithContext(ctx).Model(&model.Receipt{}).Where("company_id = ?", companyID), f)
	return page[model.Receipt](q, f.Pagination, "date DESC", "Category", "Nature")
}

func (r *ledgerRepo) ListDibursements(ctx context.Context, companyID uuid.UUID, f dto.LedgerFilter) ([]model.Dibursement, int64, error) {
	q := dateRange(r.db.WithContext(ctx).Model(&model.Dibursement{}).Where("company_id = ?", companyID), f)
	return page[model.Dibursement](q, f.Pagination, "date DESC", "Category", "Nature")
}

func dateRange(q *gorm.DB, f dto.LedgerFilter) *gorm.DB {
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", f.To.AddDate(0, 0, 1))
	}
	return q
}

func (r *ledgerRepo) DeleteReceiptTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) error {
	return deleteOne(ctx, tx, &model.Receipt{}, companyID, id)
}

func (r *ledgerRepo) DeleteDibursementTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) error {
	return deleteOne(ctx, tx, &model.Dibursement{}, companyID, id)
}

func (r *ledgerRepo) DeleteByInvoiceTx(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) error {
	return tx.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&model.Receipt{}).Error
}

func (r *ledgerRepo) DeleteByPurchaseOrderTx(ctx context.Context, tx *gorm.DB, poID uuid.UUID) error {
	return tx.WithContext(ctx).Where("purchase_order_id = ?", poID).Delete(&model.Dibursement{}).Error
}

func deleteOne(ctx context.Context, tx *gorm.DB, m any, companyID, id uuid.UUID) error {
	res := tx.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
