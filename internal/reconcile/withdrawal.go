package reconcile

import (
	"context"
	"log/slog"
	"time"

	"coppice/internal/fla/models"
	"coppice/internal/notify"
	"coppice/internal/users"
	"coppice/pkg/platform/audit"
	"coppice/pkg/requestcontext"
)

// DefaultWithdrawalThreshold is how long a case may sit with the applicant
// before it is withdrawn automatically.
const DefaultWithdrawalThreshold = 14 * 24 * time.Hour

// WithdrawalJob withdraws applications parked with the applicant beyond
// the threshold. Withdrawal also takes a still-published case off the
// consultation register; that removal is the item's critical action, so a
// gateway failure rolls the whole item back.
type WithdrawalJob struct {
	deps
	register  RegisterRemover
	threshold time.Duration
}

func NewWithdrawalJob(apps ApplicationStore, register RegisterRemover, notifier notify.Dispatcher, directory users.Directory, auditor AuditEmitter, logger *slog.Logger, threshold time.Duration) *WithdrawalJob {
	if threshold <= 0 {
		threshold = DefaultWithdrawalThreshold
	}
	return &WithdrawalJob{
		deps:      deps{apps: apps, notifier: notifier, directory: directory, auditor: auditor, logger: logger},
		register:  register,
		threshold: threshold,
	}
}

func (j *WithdrawalJob) Name() string { return "voluntary-withdrawal" }

func (j *WithdrawalJob) Candidates(ctx context.Context) ([]*models.Application, error) {
	cutoff := requestcontext.Now(ctx).Add(-j.threshold)
	return j.apps.ListWithApplicantSince(ctx, cutoff)
}

func (j *WithdrawalJob) Eligible(*models.Application) bool { return true }

// Apply removes the case from the consultation register first: a gateway
// failure then aborts the item before any local write, and an append
// failure afterwards rolls the local writes back together.
func (j *WithdrawalJob) Apply(ctx context.Context, app *models.Application) error {
	now := requestcontext.Now(ctx)
	if app.PublicRegister.OnConsultationRegister() {
		if err := j.register.RemoveConsultation(ctx, app, now); err != nil {
			return err
		}
	}
	return j.apps.AppendStatusHistory(ctx, models.StatusHistoryEntry{
		ApplicationID: app.ID,
		Status:        models.StatusWithdrawn,
		Created:       now,
	})
}

func (j *WithdrawalJob) OnSuccess(ctx context.Context, app *models.Application) {
	j.notifyApplicant(ctx, app, notify.TypeInformApplicantOfWithdrawal, map[string]string{
		"CaseReference": app.CaseReference,
	})
	j.audit(ctx, audit.EventVoluntaryWithdrawal, app, j.Name(), map[string]string{
		"PreviousStatus": string(app.CurrentStatus()),
	})
}

func (j *WithdrawalJob) OnFailure(ctx context.Context, app *models.Application, cause error) {
	j.audit(ctx, audit.EventVoluntaryWithdrawalFailure, app, j.Name(), map[string]string{
		"Error": cause.Error(),
	})
	j.notifyFailure(ctx, app, j.Name(), cause)
}
