package reconcile

import (
	"context"
	"log/slog"
	"time"

	"coppice/pkg/requestcontext"
)

// Scheduler drives the registered jobs on a fixed cadence. Each cycle
// stamps one batch time so every item in a run sees the same clock.
type Scheduler struct {
	runner   *Runner
	jobs     []Job
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(runner *Runner, jobs []Job, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{runner: runner, jobs: jobs, interval: interval, logger: logger}
}

// Run executes all jobs once per interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	ctx = requestcontext.WithTime(ctx, time.Now())
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.runner.Run(ctx, job); err != nil {
			s.logger.ErrorContext(ctx, "reconciliation job aborted",
				"job", job.Name(), "error", err)
		}
	}
}
