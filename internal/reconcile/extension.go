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

// Default extension thresholds: applications are picked up ten days before
// the final action date and extended by ninety days.
const (
	DefaultExtensionLeadTime = 10 * 24 * time.Hour
	DefaultExtensionPeriod   = 90 * 24 * time.Hour
)

// ExtensionJob extends the final action date of applications still in
// review as the date approaches, keeping the case inside its statutory
// window while review completes. The job carries no per-run state: one
// instance is shared by the scheduler and the admin trigger, and the new
// date is always derived from the item itself.
type ExtensionJob struct {
	deps
	leadTime time.Duration
	period   time.Duration
}

func NewExtensionJob(apps ApplicationStore, notifier notify.Dispatcher, directory users.Directory, auditor AuditEmitter, logger *slog.Logger, leadTime, period time.Duration) *ExtensionJob {
	if leadTime <= 0 {
		leadTime = DefaultExtensionLeadTime
	}
	if period <= 0 {
		period = DefaultExtensionPeriod
	}
	return &ExtensionJob{
		deps:     deps{apps: apps, notifier: notifier, directory: directory, auditor: auditor, logger: logger},
		leadTime: leadTime,
		period:   period,
	}
}

func (j *ExtensionJob) Name() string { return "final-action-date-extension" }

func (j *ExtensionJob) Candidates(ctx context.Context) ([]*models.Application, error) {
	cutoff := requestcontext.Now(ctx).Add(j.leadTime)
	return j.apps.ListFinalActionDateDue(ctx, cutoff)
}

func (j *ExtensionJob) Eligible(*models.Application) bool { return true }

func (j *ExtensionJob) Apply(ctx context.Context, app *models.Application) error {
	return j.apps.SetFinalActionDate(ctx, app.ID, app.FinalActionDate.Add(j.period))
}

// OnSuccess recomputes the new date from the item; app still carries the
// date as it was when the candidate was read.
func (j *ExtensionJob) OnSuccess(ctx context.Context, app *models.Application) {
	newDate := app.FinalActionDate.Add(j.period)
	data := map[string]string{
		"CaseReference":      app.CaseReference,
		"NewFinalActionDate": newDate.Format("2 January 2006"),
	}
	j.notifyApplicant(ctx, app, notify.TypeInformApplicantOfExtension, data)
	j.notifyAssignedStaff(ctx, app, notify.TypeInformStaffOfExtension, data)
	j.audit(ctx, audit.EventFinalActionDateUpdated, app, j.Name(), map[string]string{
		"PreviousFinalActionDate": app.FinalActionDate.Format(time.RFC3339),
		"NewFinalActionDate":      newDate.Format(time.RFC3339),
	})
}

func (j *ExtensionJob) OnFailure(ctx context.Context, app *models.Application, cause error) {
	j.audit(ctx, audit.EventFinalActionDateUpdateFailure, app, j.Name(), map[string]string{
		"Error": cause.Error(),
	})
	j.notifyFailure(ctx, app, j.Name(), cause)
}
