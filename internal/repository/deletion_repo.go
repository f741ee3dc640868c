package repository

import (
	"context"

	"atlascrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeletionRepository interface {
	Create(ctx context.Context, d *model.DeletionRequest) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.DeletionRequest, error)
	FindPending(ctx context.Context, companyID uuid.UUID, resource string, recordID uuid.UUID) (*model.DeletionRequest, error)
	ListPending(ctx context.Context, companyID uuid.UUID) ([]model.DeletionRequest, error)
	// DecideTx moves a pending request to status; it fails with
	// gorm.ErrRecordNotFound when the request was already decided.
	DecideTx(ctx context.Context, tx *gorm.DB, id, decidedBy uuid.UUID, status string) error
	DB() *gorm.DB
}

type deletionRepo struct{ db *gorm.DB }

func NewDeletionRepository(db *gorm.DB) DeletionRepository { return &deletionRepo{db: db} }

func (r *deletionRepo) DB() *gorm.DB { return r.db }

func (r *deletionRepo) Create(ctx context.Context, d *model.DeletionRequest) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *deletionRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.DeletionRequest, error) {
	var d model.DeletionRequest
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&d).Error
	return &d, err
}

func (r *deletionRepo) FindPending(ctx context.Context, companyID uuid.UUID, resource string, recordID uuid.UUID) (*model.DeletionRequest, error) {
	var d model.DeletionRequest
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND resource = ? AND record_id = ? AND status = ?", companyID, resource, recordID, model.DeletionPending).
		First(&d).Error
	return &d, err
}

func (r *deletionRepo) ListPending(ctx context.Context, companyID uuid.UUID) ([]model.DeletionRequest, error) {
	var out []model.DeletionRequest
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, model.DeletionPending).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *deletionRepo) DecideTx(ctx context.Context, tx *gorm.DB, id, decidedBy uuid.UUID, status string) error {
	res := tx.WithContext(ctx).Model(&model.DeletionRequest{}).
		Where("id = ? AND status = ?", id, model.DeletionPending).
		Updates(map[string]any{"status": status, "decided_by": decidedBy, "decided_at": gorm.Expr("CURRENT_TIMESTAMP")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
