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

// RegisterExpiryJob removes cases from a public register once their
// configured window has elapsed. One job instance per register kind; the
// skeleton is shared and only the register targeted differs.
type RegisterExpiryJob struct {
	deps
	register RegisterRemover
	kind     models.RegisterKind
}

func NewRegisterExpiryJob(kind models.RegisterKind, apps ApplicationStore, register RegisterRemover, notifier notify.Dispatcher, directory users.Directory, auditor AuditEmitter, logger *slog.Logger) *RegisterExpiryJob {
	return &RegisterExpiryJob{
		deps:     deps{apps: apps, notifier: notifier, directory: directory, auditor: auditor, logger: logger},
		register: register,
		kind:     kind,
	}
}

func (j *RegisterExpiryJob) Name() string {
	return string(j.kind) + "-register-expiry"
}

func (j *RegisterExpiryJob) Candidates(ctx context.Context) ([]*models.Application, error) {
	return j.apps.ListRegisterExpiryDue(ctx, j.kind, requestcontext.Now(ctx))
}

// Eligible skips cases that never made it onto the register: no record or
// no external id means there is nothing to remove yet.
func (j *RegisterExpiryJob) Eligible(app *models.Application) bool {
	return app.PublicRegister != nil && app.PublicRegister.EsriID != nil
}

func (j *RegisterExpiryJob) Apply(ctx context.Context, app *models.Application) error {
	now := requestcontext.Now(ctx)
	if j.kind == models.DecisionRegister {
		return j.register.RemoveDecision(ctx, app, now)
	}
	return j.register.RemoveConsultation(ctx, app, now)
}

func (j *RegisterExpiryJob) OnSuccess(ctx context.Context, app *models.Application) {
	j.audit(ctx, j.successEvent(), app, j.Name(), map[string]string{
		"RemovedAt": requestcontext.Now(ctx).Format(time.RFC3339),
	})
}

func (j *RegisterExpiryJob) OnFailure(ctx context.Context, app *models.Application, cause error) {
	j.audit(ctx, j.failureEvent(), app, j.Name(), map[string]string{
		"Error": cause.Error(),
	})
	j.notifyFailure(ctx, app, j.Name(), cause)
}

func (j *RegisterExpiryJob) successEvent() audit.AuditEvent {
	if j.kind == models.DecisionRegister {
		return audit.EventDecisionRegisterRemoval
	}
	return audit.EventConsultationRegisterRemoval
}

func (j *RegisterExpiryJob) failureEvent() audit.AuditEvent {
	if j.kind == models.DecisionRegister {
		return audit.EventDecisionRegisterRemovalFailure
	}
	return audit.EventConsultationRegisterRemovalFailure
}
