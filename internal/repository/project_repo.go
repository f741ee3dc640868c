package repository

import (
	"context"

	"atlascrm/internal/dto"
	"atlascrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]model.Project, int64, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, fields map[string]any) error
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepository(db *gorm.DB) ProjectRepository { return &projectRepo{db: db} }

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&p).Error
	return &p, err
}

func (r *projectRepo) List(ctx context.Context, companyID uuid.UUID, p dto.Pagination) ([]model.Project, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Project{}).Where("company_id = ?", companyID)
	if p.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", like(p.Search))
	}
	return page[model.Project](q, p, "created_at DESC")
}

func (r *projectRepo) UpdateTx(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, fields map[string]any) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&model.Project{}).Where("id = ? AND company_id = ?", id, companyID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
