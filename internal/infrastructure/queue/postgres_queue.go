package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"helpdesk/services/conversation-api/internal/infrastructure/database/entities"
	"helpdesk/services/conversation-api/internal/infrastructure/metrics"
)

// PostgresQueue implements JobQueue on the scheduled_jobs table.
type PostgresQueue struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresQueue creates a new PostgreSQL-backed job queue.
func NewPostgresQueue(db *gorm.DB, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:  db,
		log: log.With().Str("component", "postgres-queue").Logger(),
	}
}

// Enqueue implements JobQueue. Re-submission for an id already queued is
// allowed; handlers re-validate eligibility when they fire.
func (q *PostgresQueue) Enqueue(ctx context.Context, jobType string, payload any, delay time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode job payload: %w", err)
	}

	job := &entities.ScheduledJob{
		ID:      uuid.NewString(),
		JobType: jobType,
		Payload: raw,
		RunAt:   time.Now().UTC().Add(delay),
		Status:  entities.JobStatusQueued,
	}

	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	metrics.JobsEnqueued.WithLabelValues(jobType).Inc()
	q.log.Debug().
		Str("job_id", job.ID).
		Str("job_type", jobType).
		Time("run_at", job.RunAt).
		Msg("job enqueued")
	return nil
}

// DequeueDue implements JobQueue. The claim and the status flip happen in
// one transaction so a crashed worker releases the row lock and the job is
// re-claimable.
func (q *PostgresQueue) DequeueDue(ctx context.Context) (*Job, error) {
	var entity entities.ScheduledJob

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Raw("SELECT * FROM scheduled_jobs WHERE status = ? AND run_at <= ? ORDER BY run_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED",
				entities.JobStatusQueued, time.Now().UTC()).
			Scan(&entity).Error
		if err != nil {
			return err
		}
		if entity.ID == "" {
			return nil // No jobs due
		}

		return tx.Model(&entities.ScheduledJob{}).
			Where("id = ?", entity.ID).
			Updates(map[string]interface{}{
				"status":   entities.JobStatusInProgress,
				"attempts": gorm.Expr("attempts + 1"),
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("dequeue job: %w", err)
	}

	if entity.ID == "" {
		return nil, nil
	}

	return &Job{
		ID:       entity.ID,
		Type:     entity.JobType,
		Payload:  entity.Payload,
		RunAt:    entity.RunAt,
		Attempts: entity.Attempts + 1,
	}, nil
}

// MarkCompleted implements JobQueue.
func (q *PostgresQueue) MarkCompleted(ctx context.Context, jobID string) error {
	result := q.db.WithContext(ctx).
		Model(&entities.ScheduledJob{}).
		Where("id = ?", jobID).
		Update("status", entities.JobStatusCompleted)

	if result.Error != nil {
		return fmt.Errorf("mark completed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}

// MarkFailed implements JobQueue.
func (q *PostgresQueue) MarkFailed(ctx context.Context, jobID string, jobErr error) error {
	msg := jobErr.Error()
	result := q.db.WithContext(ctx).
		Model(&entities.ScheduledJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusFailed,
			"last_error": &msg,
		})

	if result.Error != nil {
		return fmt.Errorf("mark failed: %w", result.Error)
	}
	return nil
}

// Depth implements JobQueue.
func (q *PostgresQueue) Depth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&entities.ScheduledJob{}).
		Where("status = ?", entities.JobStatusQueued).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return count, nil
}
