package dto

import "time"

type DeletionRequestResponse struct {
	ID          string     `json:"id"`
	Resource    string     `json:"resource"`
	RecordID    string     `json:"recordId"`
	Reference   string     `json:"reference,omitempty"`
	RequestedBy string     `json:"requestedBy"`
	Status      string     `json:"status"`
	DecidedBy   *string    `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
