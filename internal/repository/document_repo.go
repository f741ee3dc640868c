package repository

import (
	"context"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is any of the four commercial document models.
type Document interface {
	model.Quote | model.DeliveryNote | model.Invoice | model.PurchaseOrder
	Kind() string
	ItemForeignKey() string
}

// DocumentRepository is the data access contract shared by quotes, delivery
// notes, invoices and purchase orders. Items are always loaded with the document.
type DocumentRepository[T Document] interface {
	Create(ctx context.Context, tx *gorm.DB, doc *T) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*T, error)
	// FindByIDForUpdateTx locks the document row until tx ends.
	FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) (*T, error)
	List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]T, int64, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	UpdateItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, fields map[string]any) error
	// DeleteTx removes the document and its items.
	DeleteTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) error
	DB() *gorm.DB
}

type documentRepo[T Document] struct{ db *gorm.DB }

func NewQuoteRepository(db *gorm.DB) DocumentRepository[model.Quote] {
	return &documentRepo[model.Quote]{db: db}
}

func NewDeliveryNoteRepository(db *gorm.DB) DocumentRepository[model.DeliveryNote] {
	return &documentRepo[model.DeliveryNote]{db: db}
}

func NewInvoiceRepository(db *gorm.DB) DocumentRepository[model.Invoice] {
	return &documentRepo[model.Invoice]{db: db}
}

func NewPurchaseOrderRepository(db *gorm.DB) DocumentRepository[model.PurchaseOrder] {
	return &documentRepo[model.PurchaseOrder]{db: db}
}

func (r *documentRepo[T]) DB() *gorm.DB { return r.db }

func (r *documentRepo[T]) Create(ctx context.Context, tx *gorm.DB, doc *T) error {
	return tx.WithContext(ctx).Create(doc).Error
}

func (r *documentRepo[T]) FindByID(ctx context.Context, companyID, id uuid.UUID) (*T, error) {
	var doc T
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&doc).Error
	return &doc, err
}

func (r *documentRepo[T]) FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) (*T, error) {
	var doc T
	err := forUpdate(tx.WithContext(ctx)).
		Preload("Items").
		Where("id = ? AND company_id = ?", id, companyID).
		First(&doc).Error
	return &doc, err
}

func (r *documentRepo[T]) List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]T, int64, error) {
	q := r.db.WithContext(ctx).Model(new(T)).Where("company_id = ?", companyID)
	if p.Search != "" {
		q = q.Where("LOWER(reference) LIKE ?", like(p.Search))
	}
	return page[T](q, p, "created_at DESC", "Items")
}

func (r *documentRepo[T]) UpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return tx.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields).Error
}

func (r *documentRepo[T]) UpdateItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, fields map[string]any) error {
	return tx.WithContext(ctx).Model(&model.Item{}).Where("id = ?", itemID).Updates(fields).Error
}

func (r *documentRepo[T]) DeleteTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) error {
	var zero T
	if err := tx.WithContext(ctx).Where(zero.ItemForeignKey()+" = ?", id).Delete(&model.Item{}).Error; err != nil {
		return err
	}
	res := tx.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
