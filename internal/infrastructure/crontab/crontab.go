// Package crontab runs the periodic sweep that re-submits auto-resolve
// checks for conversations whose scheduled job was lost or dropped.
package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/domain/conversation"
)

const sweepTimeout = 5 * time.Minute

// Scheduler is the resolve-check submission dependency of the sweep.
type Scheduler interface {
	Submit(ctx context.Context, conversationID uint, delay time.Duration) error
}

// Crontab owns the periodic sweep schedule.
type Crontab struct {
	ctab            *crontab.Crontab
	repo            conversation.Repository
	scheduler       Scheduler
	intervalMinutes int
	batchSize       int
	log             zerolog.Logger
}

// NewCrontab creates the sweep runner.
func NewCrontab(
	repo conversation.Repository,
	scheduler Scheduler,
	intervalMinutes int,
	batchSize int,
	log zerolog.Logger,
) *Crontab {
	return &Crontab{
		ctab:            crontab.New(),
		repo:            repo,
		scheduler:       scheduler,
		intervalMinutes: intervalMinutes,
		batchSize:       batchSize,
		log:             log.With().Str("component", "auto-resolve-sweep").Logger(),
	}
}

// Run schedules the sweep and blocks until the context ends. The sweep also
// runs once at startup to catch work that accrued while the service was down.
func (c *Crontab) Run(ctx context.Context) error {
	c.sweep(ctx)

	cronExpr := fmt.Sprintf("*/%d * * * *", c.intervalMinutes)
	if err := c.ctab.AddJob(cronExpr, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		c.sweep(jobCtx)
	}); err != nil {
		return fmt.Errorf("schedule auto-resolve sweep: %w", err)
	}
	c.log.Info().Int("interval_minutes", c.intervalMinutes).Msg("auto-resolve sweep scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// sweep re-submits immediate resolve-checks for overdue conversations. The
// job handler re-validates eligibility, so racing a still-pending scheduled
// check is harmless.
func (c *Crontab) sweep(ctx context.Context) {
	ids, err := c.repo.ListAutoResolveCandidates(ctx, time.Now().UTC(), c.batchSize)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to list auto-resolve candidates")
		return
	}
	if len(ids) == 0 {
		return
	}

	submitted := 0
	for _, id := range ids {
		if err := c.scheduler.Submit(ctx, id, 0); err != nil {
			c.log.Error().Err(err).Uint("conversation_id", id).Msg("failed to submit resolve-check")
			continue
		}
		submitted++
	}
	c.log.Info().Int("submitted", submitted).Msg("auto-resolve sweep complete")
}
