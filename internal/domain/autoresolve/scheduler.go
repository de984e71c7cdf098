// Package autoresolve schedules and decodes the delayed resolve-check jobs
// for idle conversations.
package autoresolve

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"helpdesk/services/conversation-api/internal/infrastructure/queue"
)

// Payload is the job body for a scheduled resolve-check.
type Payload struct {
	ConversationID uint `json:"conversation_id"`
}

// DecodePayload parses a resolve-check job body.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("decode auto-resolve payload: %w", err)
	}
	if p.ConversationID == 0 {
		return Payload{}, fmt.Errorf("auto-resolve payload missing conversation id")
	}
	return p, nil
}

// Scheduler submits resolve-checks to the durable job queue. Re-submission
// for a conversation that already has a pending check is allowed; the handler
// re-validates eligibility when the job fires.
type Scheduler struct {
	queue queue.JobQueue
}

// NewScheduler creates a queue-backed scheduler.
func NewScheduler(q queue.JobQueue) *Scheduler {
	return &Scheduler{queue: q}
}

// Submit enqueues a resolve-check that fires after delay.
func (s *Scheduler) Submit(ctx context.Context, conversationID uint, delay time.Duration) error {
	return s.queue.Enqueue(ctx, queue.JobTypeAutoResolve, Payload{ConversationID: conversationID}, delay)
}
