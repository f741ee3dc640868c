package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	popTimeout      = 5 * time.Second
)

// Handler processes the payload of one job type. A returned error triggers
// a retry, then the dead letter queue.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

type HandlerFunc func(ctx context.Context, raw json.RawMessage) error

func (f HandlerFunc) Process(ctx context.Context, raw json.RawMessage) error { return f(ctx, raw) }

// Pool runs a fixed number of goroutines consuming every queue.
type Pool struct {
	rdb      *redis.Client
	size     int
	queues   []string
	handlers map[string]Handler
	attempts int
	backoff  time.Duration
	wg       sync.WaitGroup

	deadLetter func(ctx context.Context, queue string, job Job, reason string, attempts int)
}

func NewPool(rdb *redis.Client, size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		rdb:      rdb,
		size:     size,
		queues:   []string{QueueDocuments, QueueEmail},
		handlers: make(map[string]Handler),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	p.deadLetter = func(ctx context.Context, queue string, job Job, reason string, attempts int) {
		SendToDLQ(ctx, rdb, queue, job, reason, attempts)
	}
	return p
}

// Handle registers h for jobType. Must be called before Start.
func (p *Pool) Handle(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches the workers. Each goroutine blocks on BRPOP and exits when
// ctx is cancelled; Wait blocks until they all have.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	log.Info().Int("workers", p.size).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		}
		result, err := p.rdb.BRPop(ctx, popTimeout, p.queues...).Result()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.processJob(ctx, result[0], result[1])
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.deadLetter(ctx, queue, Job{Type: "unknown", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, "invalid job: "+err.Error(), 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		p.deadLetter(ctx, queue, job, "no handler for job type "+job.Type, 0)
		return
	}

	started := time.Now()
	attempts := 0
	err := withRetry(ctx, p.attempts, p.backoff, func(attempt int) error {
		attempts = attempt + 1
		err := h.Process(ctx, job.Payload)
		if err != nil {
			log.Warn().Err(err).Str("type", job.Type).Int("attempt", attempts).Msg("job attempt failed")
		}
		return err
	})
	if err != nil {
		p.deadLetter(ctx, queue, job, err.Error(), attempts)
		return
	}
	log.Info().
		Str("type", job.Type).
		Str("queue", queue).
		Int("attempts", attempts).
		Dur("took", time.Since(started)).
		Msg("job done")
}

// withRetry calls fn up to maxAttempts times, waiting base, 2×base, 4×base…
// between attempts. Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := base * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
