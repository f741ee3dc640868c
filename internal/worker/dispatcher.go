package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	QueueDocuments = "jobs:documents"
	QueueEmail     = "jobs:email"
)

// Job types.
const (
	JobSendDocument = "send_document"
	JobEmail        = "email"
)

// ErrQueueUnavailable is returned when no Redis client was configured.
var ErrQueueUnavailable = errors.New("worker: file d'attente indisponible")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueDocument asks a worker to render a document and mail it.
func (d *Dispatcher) EnqueueDocument(ctx context.Context, payload DocumentJobPayload) error {
	return d.enqueue(ctx, QueueDocuments, JobSendDocument, payload)
}

func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	if d == nil || d.rdb == nil {
		return ErrQueueUnavailable
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}
