// Package worker runs the background job processors for scheduled
// conversation work.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/domain/autoresolve"
	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/infrastructure/metrics"
	"helpdesk/services/conversation-api/internal/infrastructure/queue"
)

// Worker polls the job queue and executes due jobs.
type Worker struct {
	id           int
	queue        queue.JobQueue
	service      conversation.Service
	pollInterval time.Duration
	jobTimeout   time.Duration
	log          zerolog.Logger
	stopChan     chan struct{}
}

// NewWorker creates a background worker.
func NewWorker(
	id int,
	q queue.JobQueue,
	service conversation.Service,
	pollInterval time.Duration,
	jobTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:           id,
		queue:        q,
		service:      service,
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
		log:          log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling for due jobs until the context or Stop ends it.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.processNextJob(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNextJob(ctx context.Context) {
	job, err := w.queue.DequeueDue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to dequeue job")
		return
	}
	if job == nil {
		return
	}

	w.log.Info().
		Str("job_id", job.ID).
		Str("job_type", job.Type).
		Int("attempts", job.Attempts).
		Msg("processing job")

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	if err := w.executeJob(jobCtx, job); err != nil {
		metrics.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()
		w.log.Error().Err(err).Str("job_id", job.ID).Msg("job execution failed")
		if markErr := w.queue.MarkFailed(ctx, job.ID, err); markErr != nil {
			w.log.Error().Err(markErr).Str("job_id", job.ID).Msg("failed to mark job as failed")
		}
		return
	}

	if err := w.queue.MarkCompleted(ctx, job.ID); err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job as completed")
		return
	}

	metrics.JobsProcessed.WithLabelValues(job.Type, "completed").Inc()
	w.log.Info().Str("job_id", job.ID).Msg("job completed")
}

func (w *Worker) executeJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAutoResolve:
		payload, err := autoresolve.DecodePayload(job.Payload)
		if err != nil {
			return err
		}
		return w.service.ExecuteAutoResolve(ctx, payload.ConversationID)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}
