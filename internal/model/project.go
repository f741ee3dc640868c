package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProjectTodo       = "TODO"
	ProjectInProgress = "IN_PROGRESS"
	ProjectDone       = "DONE"
	ProjectBlocked    = "BLOCKED"
)

type Project struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID  *uuid.UUID      `gorm:"type:uuid;index"`
	Name      string          `gorm:"not null"`
	Status    string          `gorm:"type:varchar(12);not null;default:'TODO'"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Deadline  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
