// Package scheduler runs periodic maintenance jobs such as the full ledger
// reconciliation.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"enroll/pkg/requestcontext"
)

// Job is one scheduled unit of work. Its context carries a request id and the
// run's start time.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	base    context.Context
}

// New creates a scheduler whose jobs skip a tick while the previous run is
// still going and recover from panics.
func New(logger *slog.Logger, timeout time.Duration) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{cron: c, logger: logger, timeout: timeout, base: context.Background()}
}

// Add registers job under a standard five-field cron spec or a descriptor such
// as "@hourly".
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info("scheduled job", "job", name, "schedule", spec)
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.base = context.WithoutCancel(ctx)
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		start := time.Now()
		ctx, cancel := context.WithTimeout(s.base, s.timeout)
		defer cancel()
		ctx = requestcontext.WithRequestID(ctx, "job-"+uuid.NewString())
		ctx = requestcontext.WithTime(ctx, start)

		if err := job(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled job failed",
				"job", name,
				"request_id", requestcontext.RequestID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			return
		}
		s.logger.InfoContext(ctx, "scheduled job completed",
			"job", name,
			"request_id", requestcontext.RequestID(ctx),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
