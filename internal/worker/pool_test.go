package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dead struct {
	queue    string
	job      Job
	reason   string
	attempts int
}

func testPool(t *testing.T) (*Pool, *[]dead) {
	t.Helper()
	p := NewPool(nil, 1)
	p.backoff = time.Millisecond
	var got []dead
	p.deadLetter = func(_ context.Context, queue string, job Job, reason string, attempts int) {
		got = append(got, dead{queue, job, reason, attempts})
	}
	return p, &got
}

func encodeJob(t *testing.T, jobType string, payload any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobType, Payload: data})
	require.NoError(t, err)
	return string(raw)
}

func TestProcessJob_RetriesThenDeadLetters(t *testing.T) {
	p, dlq := testPool(t)
	calls := 0
	p.Handle(JobEmail, HandlerFunc(func(context.Context, json.RawMessage) error {
		calls++
		return errors.New("smtp down")
	}))

	p.processJob(context.Background(), QueueEmail, encodeJob(t, JobEmail, EmailJobPayload{Subject: "x"}))

	assert.Equal(t, 3, calls)
	require.Len(t, *dlq, 1)
	assert.Equal(t, QueueEmail, (*dlq)[0].queue)
	assert.Equal(t, 3, (*dlq)[0].attempts)
	assert.Equal(t, "smtp down", (*dlq)[0].reason)
}

func TestProcessJob_SucceedsOnSecondAttempt(t *testing.T) {
	p, dlq := testPool(t)
	calls := 0
	p.Handle(JobSendDocument, HandlerFunc(func(context.Context, json.RawMessage) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}))

	p.processJob(context.Background(), QueueDocuments, encodeJob(t, JobSendDocument, DocumentJobPayload{}))

	assert.Equal(t, 2, calls)
	assert.Empty(t, *dlq)
}

func TestProcessJob_UnknownTypeAndGarbage(t *testing.T) {
	p, dlq := testPool(t)

	p.processJob(context.Background(), QueueEmail, encodeJob(t, "fax", nil))
	p.processJob(context.Background(), QueueEmail, "{not json")

	require.Len(t, *dlq, 2)
	assert.Contains(t, (*dlq)[0].reason, "no handler")
	assert.Contains(t, (*dlq)[1].reason, "invalid job")
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 5, time.Hour, func(int) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDispatcher_WithoutRedis(t *testing.T) {
	var d *Dispatcher
	assert.ErrorIs(t, d.EnqueueEmail(context.Background(), EmailJobPayload{}), ErrQueueUnavailable)
	assert.ErrorIs(t, NewDispatcher(nil).EnqueueDocument(context.Background(), DocumentJobPayload{}), ErrQueueUnavailable)
}
