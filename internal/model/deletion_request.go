package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DeletionPending  = "PENDING"
	DeletionApproved = "APPROVED"
	DeletionRejected = "REJECTED"
)

// DeletionRequest is a delete waiting for an approver.
// Resource: "invoice" | "purchase_order" | "receipt" | "dibursement"
type DeletionRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Resource    string     `gorm:"type:varchar(20);not null"`
	RecordID    uuid.UUID  `gorm:"type:uuid;not null"`
	Reference   string
	RequestedBy uuid.UUID  `gorm:"type:uuid;not null"`
	Status      string     `gorm:"type:varchar(10);not null;default:'PENDING';index"`
	DecidedBy   *uuid.UUID `gorm:"type:uuid"`
	DecidedAt   *time.Time
	CreatedAt   time.Time
}
