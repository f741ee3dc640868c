package repository

import (
	"context"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contact is a counterpart carrying running balances.
type Contact interface {
	model.Client | model.Supplier
	Balance() (due, paid decimal.Decimal)
}

// ContactRepository serves clients and suppliers.
type ContactRepository[T Contact] interface {
	Create(ctx context.Context, c *T) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*T, error)
	List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]T, int64, error)
	Update(ctx context.Context, c *T) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	ExistsEmail(ctx context.Context, companyID uuid.UUID, email string, exclude uuid.UUID) (bool, error)

	// AdjustBalanceTx locks the row and adds the deltas to due and paid_amount.
	AdjustBalanceTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, dueDelta, paidDelta decimal.Decimal) error
	DB() *gorm.DB
}

type contactRepo[T Contact] struct {
	db      *gorm.DB
	preload []string
}

func NewClientRepository(db *gorm.DB) ContactRepository[model.Client] {
	return &contactRepo[model.Client]{db: db, preload: []string{"Billboards"}}
}

func NewSupplierRepository(db *gorm.DB) ContactRepository[model.Supplier] {
	return &contactRepo[model.Supplier]{db: db}
}

func (r *contactRepo[T]) DB() *gorm.DB { return r.db }

func (r *contactRepo[T]) Create(ctx context.Context, c *T) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contactRepo[T]) FindByID(ctx context.Context, companyID, id uuid.UUID) (*T, error) {
	var c T
	q := r.db.WithContext(ctx)
	for _, p := range r.preload {
		q = q.Preload(p)
	}
	err := q.Where("id = ? AND company_id = ?", id, companyID).First(&c).Error
	return &c, err
}

func (r *contactRepo[T]) List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]T, int64, error) {
	q := r.db.WithContext(ctx).Model(new(T)).Where("company_id = ?", companyID)
	if p.Search != "" {
		s := like(p.Search)
		q = q.Where("LOWER(company_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(last_name) LIKE ?", s, s, s)
	}
	return page[T](q, p, "company_name ASC")
}

func (r *contactRepo[T]) Update(ctx context.Context, c *T) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *contactRepo[T]) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contactRepo[T]) ExistsEmail(ctx context.Context, companyID uuid.UUID, email string, exclude uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).
		Where("company_id = ? AND LOWER(email) = LOWER(?) AND id <> ?", companyID, email, exclude).
		Count(&n).Error
	return n > 0, err
}

func (r *contactRepo[T]) AdjustBalanceTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, dueDelta, paidDelta decimal.Decimal) error {
	var c T
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ? AND company_id = ?", id, companyID).First(&c).Error; err != nil {
		return err
	}
	due, paid := c.Balance()
	return tx.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]any{
		"due":         due.Add(dueDelta),
		"paid_amount": paid.Add(paidDelta),
	}).Error
}
