package autoresolve

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"helpdesk/services/conversation-api/internal/infrastructure/queue"
)

type capturingQueue struct {
	jobType string
	payload any
	delay   time.Duration
}

func (q *capturingQueue) Enqueue(ctx context.Context, jobType string, payload any, delay time.Duration) error {
	q.jobType = jobType
	q.payload = payload
	q.delay = delay
	return nil
}

func (q *capturingQueue) DequeueDue(ctx context.Context) (*queue.Job, error) { return nil, nil }
func (q *capturingQueue) MarkCompleted(ctx context.Context, jobID string) error {
	return nil
}
func (q *capturingQueue) MarkFailed(ctx context.Context, jobID string, jobErr error) error {
	return nil
}
func (q *capturingQueue) Depth(ctx context.Context) (int64, error) { return 0, nil }

func TestScheduler_Submit(t *testing.T) {
	q := &capturingQueue{}
	s := NewScheduler(q)

	if err := s.Submit(context.Background(), 42, 3*24*time.Hour); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if q.jobType != queue.JobTypeAutoResolve {
		t.Errorf("job type = %q, want %q", q.jobType, queue.JobTypeAutoResolve)
	}
	if q.delay != 3*24*time.Hour {
		t.Errorf("delay = %v, want 72h", q.delay)
	}

	raw, err := json.Marshal(q.payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	p, err := DecodePayload(raw)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.ConversationID != 42 {
		t.Errorf("conversation id = %d, want 42", p.ConversationID)
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	if _, err := DecodePayload([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := DecodePayload([]byte(`{}`)); err == nil {
		t.Error("expected error for missing conversation id")
	}
}
