package entities

import "time"

// Job statuses.
const (
	JobStatusQueued     = "queued"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ScheduledJob backs the delayed job queue. Rows are claimed with
// FOR UPDATE SKIP LOCKED so multiple workers never double-run a job.
type ScheduledJob struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	JobType  string    `gorm:"type:varchar(64);index;not null"`
	Payload  []byte    `gorm:"type:jsonb"`
	RunAt    time.Time `gorm:"index:idx_job_status_run_at;not null"`
	Status   string    `gorm:"type:varchar(20);index:idx_job_status_run_at;not null;default:'queued'"`
	Attempts int       `gorm:"not null;default:0"`
	LastError *string  `gorm:"type:text"`
}

// TableName specifies the table name for ScheduledJob.
func (ScheduledJob) TableName() string {
	return "scheduled_jobs"
}
