package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hirelens/billingkit/pkg/tenant"
)

// ErrInvalidSchedule wraps cron parse failures during registration.
var ErrInvalidSchedule = errors.New("invalid sweep schedule")

// Job is one recurring maintenance task. Run receives a context already
// carrying the system scope named after the job.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Runner schedules jobs on a UTC cron. Jobs run under a system scope so
// the stores accept their cross-tenant reads and the audit trail names
// the job as actor.
type Runner struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewRunner creates an empty runner.
func NewRunner(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cron: cron.New(cron.WithLocation(time.UTC)),
		log:  log,
	}
}

// Register adds a job to the schedule.
func (r *Runner) Register(job Job) error {
	_, err := r.cron.AddFunc(job.Schedule, func() {
		scope := tenant.SystemScope("sweep:" + job.Name)
		ctx := tenant.WithScope(context.Background(), scope)

		started := time.Now()
		if err := job.Run(ctx); err != nil {
			r.log.ErrorContext(ctx, "sweep job failed",
				slog.String("job", job.Name),
				slog.Any("error", err),
			)
			return
		}
		r.log.InfoContext(ctx, "sweep job completed",
			slog.String("job", job.Name),
			slog.Duration("took", time.Since(started)),
		)
	})
	if err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}
	return nil
}

// Start launches the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
