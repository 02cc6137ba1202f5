// Package jobs runs the periodic background work of the server.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campusevents/internal/domain"

	"github.com/robfig/cron/v3"
)

// DefaultStatusSyncSpec advances event statuses once a minute.
const DefaultStatusSyncSpec = "@every 1m"

// Scheduler wraps a cron runner with the server's periodic jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	events  domain.EventService
	timeout time.Duration
}

// NewScheduler registers the status sync job under spec. An empty spec uses
// DefaultStatusSyncSpec.
func NewScheduler(logger *slog.Logger, events domain.EventService, spec string, timeout time.Duration) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultStatusSyncSpec
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DiscardLogger))),
		logger:  logger,
		events:  events,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.SyncStatuses); err != nil {
		return nil, fmt.Errorf("register status sync %q: %w", spec, err)
	}
	return s, nil
}

// SyncStatuses moves events whose start or end date has passed to Ongoing or Completed.
func (s *Scheduler) SyncStatuses() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started, completed, err := s.events.SyncStatuses(ctx)
	if err != nil {
		s.logger.Error("status sync failed", "error", err)
		return
	}
	if started > 0 || completed > 0 {
		s.logger.Info("event statuses advanced", "started", started, "completed", completed)
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop halts the runner and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}
