// Package queue provides the delayed job submission contract and its
// postgres implementation. Delivery is at least once; job handlers must be
// idempotent.
package queue

import (
	"context"
	"time"
)

// Job types processed by the workers.
const (
	JobTypeAutoResolve = "conversation.auto_resolve"
)

// Job is a scheduled unit of work with a JSON payload.
type Job struct {
	ID       string
	Type     string
	Payload  []byte
	RunAt    time.Time
	Attempts int
}

// JobQueue defines the job submission and consumption contract.
type JobQueue interface {
	// Enqueue schedules a job to run after the given delay. The payload is
	// JSON-encoded.
	Enqueue(ctx context.Context, jobType string, payload any, delay time.Duration) error

	// DequeueDue claims the next due job using SELECT FOR UPDATE SKIP LOCKED,
	// or returns nil when none is due.
	DequeueDue(ctx context.Context) (*Job, error)

	// MarkCompleted records a successful run.
	MarkCompleted(ctx context.Context, jobID string) error

	// MarkFailed records a failed run. Failed jobs are kept for inspection,
	// not retried; the crontab sweep re-submits eligible work.
	MarkFailed(ctx context.Context, jobID string, jobErr error) error

	// Depth returns the number of queued jobs.
	Depth(ctx context.Context) (int64, error)
}
