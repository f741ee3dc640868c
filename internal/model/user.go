package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a member of a company.
// Role: "ADMIN" | "USER"; Permissions only apply to USER.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Email        string     `gorm:"uniqueIndex;not null"`
	Name         string     `gorm:"not null"`
	PasswordHash string     `gorm:"not null"`
	Role         string     `gorm:"type:varchar(10);not null"`
	Permissions  StringList `gorm:"type:text"`
	Active       bool       `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Company *Company `gorm:"foreignKey:CompanyID"`
}
