// Package reconcile hosts the batch engine that drags application state
// back inside its service-level thresholds: final action date extension,
// voluntary withdrawal of stale with-applicant cases, and public register
// expiry removal. Every variant shares one skeleton: query the candidates,
// then per item run the primary action in its own transaction, commit or
// roll back, and record the outcome. One item's failure never touches
// another's processing.
package reconcile

import (
	"context"
	"log/slog"

	"coppice/internal/fla/models"
	"coppice/internal/platform/metrics"
	"coppice/pkg/requestcontext"
)

// Job is one reconciliation variant. Variants differ only in the query
// predicate, the primary action, and the notifications; the Runner owns
// the orchestration skeleton.
type Job interface {
	Name() string

	// Candidates returns the applications exceeding the job's threshold.
	Candidates(ctx context.Context) ([]*models.Application, error)

	// Eligible filters items that are not yet actionable (no register
	// record, no external id). Ineligible items are skipped, not failed.
	Eligible(app *models.Application) bool

	// Apply performs the item's primary action. It runs inside the item's
	// transaction; returning an error rolls that item back.
	Apply(ctx context.Context, app *models.Application) error

	// OnSuccess and OnFailure run after commit/rollback: best-effort
	// notifications and the item's audit event.
	OnSuccess(ctx context.Context, app *models.Application)
	OnFailure(ctx context.Context, app *models.Application, cause error)
}

// StoreTx is the per-item transaction boundary.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Summary reports one run of one job.
type Summary struct {
	Job       string
	Processed int
	Failed    int
	Skipped   int
}

// Runner executes reconciliation jobs sequentially, one transaction per
// item. Sequential processing bounds the blast radius of a failure and
// keeps register-call ordering deterministic; volumes are SLA-driven and
// small.
type Runner struct {
	tx      StoreTx
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRunner constructs a Runner. metrics may be nil.
func NewRunner(tx StoreTx, logger *slog.Logger, m *metrics.Metrics) *Runner {
	return &Runner{tx: tx, logger: logger, metrics: m}
}

// Run executes one job over its current candidates. The whole run shares
// one batch timestamp. Cancellation between items stops the run; the
// per-item transaction means no item is left half-applied.
func (r *Runner) Run(ctx context.Context, job Job) (Summary, error) {
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))
	summary := Summary{Job: job.Name()}

	items, err := job.Candidates(ctx)
	if err != nil {
		return summary, err
	}
	r.logger.InfoContext(ctx, "reconciliation run starting",
		"job", job.Name(), "candidates", len(items))

	for _, app := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !job.Eligible(app) {
			summary.Skipped++
			r.count(job, "skipped")
			continue
		}
		if err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
			return job.Apply(txCtx, app)
		}); err != nil {
			summary.Failed++
			r.count(job, "failed")
			r.logger.ErrorContext(ctx, "reconciliation item failed",
				"job", job.Name(),
				"application_id", app.ID.String(),
				"error", err)
			job.OnFailure(ctx, app, err)
			continue
		}
		summary.Processed++
		r.count(job, "processed")
		job.OnSuccess(ctx, app)
	}

	r.logger.InfoContext(ctx, "reconciliation run finished",
		"job", job.Name(),
		"processed", summary.Processed,
		"failed", summary.Failed,
		"skipped", summary.Skipped)
	return summary, nil
}

func (r *Runner) count(job Job, result string) {
	if r.metrics != nil {
		r.metrics.CountReconciliationItem(job.Name(), result)
	}
}
