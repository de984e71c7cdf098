package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/infrastructure/queue"
)

type fakeQueue struct {
	jobs      []*queue.Job
	completed []string
	failed    []string
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobType string, payload any, delay time.Duration) error {
	return nil
}

func (q *fakeQueue) DequeueDue(ctx context.Context) (*queue.Job, error) {
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *fakeQueue) MarkCompleted(ctx context.Context, jobID string) error {
	q.completed = append(q.completed, jobID)
	return nil
}

func (q *fakeQueue) MarkFailed(ctx context.Context, jobID string, jobErr error) error {
	q.failed = append(q.failed, jobID)
	return nil
}

func (q *fakeQueue) Depth(ctx context.Context) (int64, error) {
	return int64(len(q.jobs)), nil
}

type fakeService struct {
	conversation.Service
	executed []uint
	err      error
}

func (s *fakeService) ExecuteAutoResolve(ctx context.Context, conversationID uint) error {
	s.executed = append(s.executed, conversationID)
	return s.err
}

func newTestWorker(q queue.JobQueue, svc conversation.Service) *Worker {
	return NewWorker(1, q, svc, 10*time.Millisecond, time.Second, zerolog.Nop())
}

func TestWorker_ProcessesAutoResolveJob(t *testing.T) {
	q := &fakeQueue{jobs: []*queue.Job{{
		ID:      "job-1",
		Type:    queue.JobTypeAutoResolve,
		Payload: []byte(`{"conversation_id":42}`),
	}}}
	svc := &fakeService{}

	w := newTestWorker(q, svc)
	w.processNextJob(context.Background())

	if len(svc.executed) != 1 || svc.executed[0] != 42 {
		t.Fatalf("executed = %v, want [42]", svc.executed)
	}
	if len(q.completed) != 1 || q.completed[0] != "job-1" {
		t.Fatalf("completed = %v, want [job-1]", q.completed)
	}
}

func TestWorker_MarksFailedOnHandlerError(t *testing.T) {
	q := &fakeQueue{jobs: []*queue.Job{{
		ID:      "job-2",
		Type:    queue.JobTypeAutoResolve,
		Payload: []byte(`{"conversation_id":7}`),
	}}}
	svc := &fakeService{err: errors.New("db down")}

	w := newTestWorker(q, svc)
	w.processNextJob(context.Background())

	if len(q.failed) != 1 || q.failed[0] != "job-2" {
		t.Fatalf("failed = %v, want [job-2]", q.failed)
	}
	if len(q.completed) != 0 {
		t.Fatalf("completed = %v, want none", q.completed)
	}
}

func TestWorker_MarksFailedOnBadPayload(t *testing.T) {
	q := &fakeQueue{jobs: []*queue.Job{{
		ID:      "job-3",
		Type:    queue.JobTypeAutoResolve,
		Payload: []byte(`not json`),
	}}}
	svc := &fakeService{}

	w := newTestWorker(q, svc)
	w.processNextJob(context.Background())

	if len(svc.executed) != 0 {
		t.Fatalf("executed = %v, want none", svc.executed)
	}
	if len(q.failed) != 1 {
		t.Fatalf("failed = %v, want one entry", q.failed)
	}
}

func TestWorker_UnknownJobTypeFails(t *testing.T) {
	q := &fakeQueue{jobs: []*queue.Job{{
		ID:      "job-4",
		Type:    "conversation.reindex",
		Payload: []byte(`{}`),
	}}}

	w := newTestWorker(q, &fakeService{})
	w.processNextJob(context.Background())

	if len(q.failed) != 1 {
		t.Fatalf("failed = %v, want one entry", q.failed)
	}
}
