package repository

import (
	"strings"

	"atlascrm/internal/dto"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock; SQLite ignores it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// page counts q, then loads one page of rows with the given preloads.
func page[T any](q *gorm.DB, p dto.Pagination, order string, preloads ...string) ([]T, int64, error) {
	p.Normalize()
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	for _, pl := range preloads {
		q = q.Preload(pl)
	}
	var rows []T
	err := q.Order(order).Offset(p.Offset()).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}

func like(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
