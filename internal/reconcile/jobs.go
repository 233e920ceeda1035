package reconcile

import (
	"context"
	"log/slog"
	"time"

	"coppice/internal/fla/models"
	"coppice/internal/notify"
	"coppice/internal/users"
	id "coppice/pkg/domain"
	"coppice/pkg/platform/audit"
	"coppice/pkg/requestcontext"
)

// ApplicationStore is what the reconciliation jobs need from persistence.
type ApplicationStore interface {
	ListFinalActionDateDue(ctx context.Context, cutoff time.Time) ([]*models.Application, error)
	ListWithApplicantSince(ctx context.Context, cutoff time.Time) ([]*models.Application, error)
	ListRegisterExpiryDue(ctx context.Context, kind models.RegisterKind, now time.Time) ([]*models.Application, error)
	SetFinalActionDate(ctx context.Context, appID id.ApplicationID, date time.Time) error
	AppendStatusHistory(ctx context.Context, entry models.StatusHistoryEntry) error
}

// RegisterRemover is the slice of the synchronizer the jobs use.
type RegisterRemover interface {
	RemoveDecision(ctx context.Context, app *models.Application, now time.Time) error
	RemoveConsultation(ctx context.Context, app *models.Application, now time.Time) error
}

// AuditEmitter appends immutable audit events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// deps bundles the collaborators every job shares. Register access is not
// shared: only the jobs that talk to a register carry a RegisterRemover.
type deps struct {
	apps      ApplicationStore
	notifier  notify.Dispatcher
	directory users.Directory
	auditor   AuditEmitter
	logger    *slog.Logger
}

func (d deps) audit(ctx context.Context, action audit.AuditEvent, app *models.Application, source string, details map[string]string) {
	event := audit.Event{
		Timestamp:     requestcontext.Now(ctx),
		ApplicationID: app.ID,
		CaseReference: app.CaseReference,
		Source:        source,
		Action:        string(action),
		Details:       details,
	}
	if err := d.auditor.Emit(ctx, event); err != nil {
		d.logger.ErrorContext(ctx, "audit emission failed",
			"action", string(action), "application_id", app.ID.String(), "error", err)
	}
}

// notifyApplicant sends one best-effort notification to the application's
// creator. Failures are logged, never propagated: a notification can lag
// behind the already-committed state change.
func (d deps) notifyApplicant(ctx context.Context, app *models.Application, t notify.Type, data map[string]string) {
	applicant, err := d.directory.Get(ctx, app.CreatedByID)
	if err != nil {
		d.logger.WarnContext(ctx, "applicant unresolvable for batch notification",
			"application_id", app.ID.String(), "error", err)
		return
	}
	n := notify.Notification{Type: t, Recipient: notify.RecipientFor(applicant), Data: data}
	if err := d.notifier.Send(ctx, n); err != nil {
		d.logger.WarnContext(ctx, "batch applicant notification failed",
			"application_id", app.ID.String(), "error", err)
	}
}

// notifyAssignedStaff fans one notification out to every staff member with
// an open assignment, independently per recipient.
func (d deps) notifyAssignedStaff(ctx context.Context, app *models.Application, t notify.Type, data map[string]string) {
	staff, err := d.directory.GetMany(ctx, app.AssignedStaff())
	if err != nil {
		d.logger.WarnContext(ctx, "staff unresolvable for batch notification",
			"application_id", app.ID.String(), "error", err)
		return
	}
	for _, member := range notify.DedupeRecipients(staff) {
		n := notify.Notification{Type: t, Recipient: notify.RecipientFor(member), Data: data}
		if err := d.notifier.Send(ctx, n); err != nil {
			d.logger.WarnContext(ctx, "batch staff notification failed",
				"application_id", app.ID.String(),
				"recipient", member.Email, "error", err)
		}
	}
}

// notifyFailure raises the distinct staff-facing failure notification for
// an item whose primary action failed and rolled back.
func (d deps) notifyFailure(ctx context.Context, app *models.Application, jobName string, cause error) {
	d.notifyAssignedStaff(ctx, app, notify.TypeInformStaffOfProcessFailure, map[string]string{
		"CaseReference": app.CaseReference,
		"Process":       jobName,
		"Reason":        cause.Error(),
	})
}
