package repository

import (
	"context"
	"time"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Billboards ────────────────────────────────────────────────────────────────

type BillboardRepository interface {
	Create(ctx context.Context, b *model.Billboard) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Billboard, error)
	FindByIDsTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, ids []uuid.UUID) ([]model.Billboard, error)
	List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]model.Billboard, int64, error)
	Update(ctx context.Context, b *model.Billboard) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	ExistsReference(ctx context.Context, companyID uuid.UUID, ref string, exclude uuid.UUID) (bool, error)

	// AttachToClientTx links billboards to a client's rented list.
	AttachToClientTx(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, billboards []model.Billboard) error
	// FindBookingsTx returns approved billboard items whose rental range
	// overlaps [start, end] (inclusive), excluding items in skip.
	FindBookingsTx(ctx context.Context, tx *gorm.DB, companyID, billboardID uuid.UUID, start, end time.Time, skip []uuid.UUID) ([]model.Item, error)
}

type billboardRepo struct{ db *gorm.DB }

func NewBillboardRepository(db *gorm.DB) BillboardRepository { return &billboardRepo{db: db} }

func (r *billboardRepo) Create(ctx context.Context, b *model.Billboard) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *billboardRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Billboard, error) {
	var b model.Billboard
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&b).Error
	return &b, err
}

func (r *billboardRepo) FindByIDsTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, ids []uuid.UUID) ([]model.Billboard, error) {
	if tx == nil {
		tx = r.db
	}
	var out []model.Billboard
	if len(ids) == 0 {
		return out, nil
	}
	err := tx.WithContext(ctx).Where("company_id = ? AND id IN ?", companyID, ids).Find(&out).Error
	return out, err
}

func (r *billboardRepo) List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]model.Billboard, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Billboard{}).Where("company_id = ?", companyID)
	if p.Search != "" {
		s := like(p.Search)
		q = q.Where("LOWER(reference) LIKE ? OR LOWER(name) LIKE ? OR LOWER(city) LIKE ?", s, s, s)
	}
	return page[model.Billboard](q, p, "reference ASC")
}

func (r *billboardRepo) Update(ctx context.Context, b *model.Billboard) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *billboardRepo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Billboard{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *billboardRepo) ExistsReference(ctx context.Context, companyID uuid.UUID, ref string, exclude uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Billboard{}).
		Where("company_id = ? AND reference = ? AND id <> ?", companyID, ref, exclude).Count(&n).Error
	return n > 0, err
}

func (r *billboardRepo) AttachToClientTx(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, billboards []model.Billboard) error {
	if len(billboards) == 0 {
		return nil
	}
	client := model.Client{ID: clientID}
	return tx.WithContext(ctx).Model(&client).Association("Billboards").Append(billboards)
}

func (r *billboardRepo) FindBookingsTx(ctx context.Context, tx *gorm.DB, companyID, billboardID uuid.UUID, start, end time.Time, skip []uuid.UUID) ([]model.Item, error) {
	if tx == nil {
		tx = r.db
	}
	q := tx.WithContext(ctx).
		Where("company_id = ? AND billboard_id = ? AND state = ?", companyID, billboardID, model.ItemStateApproved).
		Where("location_start <= ? AND location_end >= ?", end, start)
	if len(skip) > 0 {
		q = q.Where("id NOT IN ?", skip)
	}
	var items []model.Item
	err := q.Find(&items).Error
	return items, err
}

// ── Products & services ──────────────────────────────────────────────────────

type ProductServiceRepository interface {
	Create(ctx context.Context, p *model.ProductService) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.ProductService, error)
	List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]model.ProductService, int64, error)
	Update(ctx context.Context, p *model.ProductService) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	ExistsReference(ctx context.Context, companyID uuid.UUID, ref string, exclude uuid.UUID) (bool, error)

	// MoveQuantityTx adds delta (negative for consumption) to the quantity
	// under a row lock and records the movement.
	MoveQuantityTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, delta int, kind, reason string, ref *uuid.UUID) error
	ListMovements(ctx context.Context, companyID, productID uuid.UUID, p dto.Pagination) ([]model.StockMovement, int64, error)
	DB() *gorm.DB
}

type productServiceRepo struct{ db *gorm.DB }

func NewProductServiceRepository(db *gorm.DB) ProductServiceRepository {
	return &productServiceRepo{db: db}
}

func (r *productServiceRepo) DB() *gorm.DB { return r.db }

func (r *productServiceRepo) Create(ctx context.Context, p *model.ProductService) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productServiceRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.ProductService, error) {
	var p model.ProductService
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&p).Error
	return &p, err
}

func (r *productServiceRepo) List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]model.ProductService, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ProductService{}).Where("company_id = ?", companyID)
	if p.Search != "" {
		s := like(p.Search)
		q = q.Where("LOWER(reference) LIKE ? OR LOWER(designation) LIKE ?", s, s)
	}
	return page[model.ProductService](q, p, "designation ASC")
}

func (r *productServiceRepo) Update(ctx context.Context, p *model.ProductService) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productServiceRepo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.ProductService{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productServiceRepo) ExistsReference(ctx context.Context, companyID uuid.UUID, ref string, exclude uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ProductService{}).
		Where("company_id = ? AND reference = ? AND id <> ?", companyID, ref, exclude).Count(&n).Error
	return n > 0, err
}

func (r *productServiceRepo) MoveQuantityTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, delta int, kind, reason string, ref *uuid.UUID) error {
	var p model.ProductService
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ? AND company_id = ?", id, companyID).First(&p).Error; err != nil {
		return err
	}
	after := p.Quantity + delta
	if err := tx.WithContext(ctx).Model(&model.ProductService{}).Where("id = ?", id).Update("quantity", after).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&model.StockMovement{
		CompanyID:        companyID,
		ProductServiceID: id,
		Kind:             kind,
		Quantity:         delta,
		QuantityBefore:   p.Quantity,
		QuantityAfter:    after,
		Reason:           reason,
		ReferenceID:      ref,
	}).Error
}

func (r *productServiceRepo) ListMovements(ctx context.Context, companyID, productID uuid.UUID, p dto.Pagination) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("company_id = ? AND product_service_id = ?", companyID, productID)
	return page[model.StockMovement](q, p, "created_at DESC")
}
