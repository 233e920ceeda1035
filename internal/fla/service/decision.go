package service

import (
	"context"
	"errors"

	"coppice/internal/fla/models"
	"coppice/internal/notify"
	"coppice/internal/publicregister"
	id "coppice/pkg/domain"
	dErrors "coppice/pkg/domain-errors"
	"coppice/pkg/platform/audit"
	"coppice/pkg/platform/sentinel"
	"coppice/pkg/requestcontext"
)

// FinaliseDecisionRequest asks for a terminal decision on an application
// sitting in SentForApproval.
type FinaliseDecisionRequest struct {
	ApplicationID   id.ApplicationID
	RequestedStatus models.Status
	// Reason accompanies refusals and referrals in notifications.
	Reason string
}

var decisionAuditActions = map[models.Status]audit.AuditEvent{
	models.StatusApproved:                 audit.EventApplicationApproved,
	models.StatusRefused:                  audit.EventApplicationRefused,
	models.StatusReferredToLocalAuthority: audit.EventApplicationReferred,
}

// FinaliseDecision performs approve/refuse/refer. The status history append
// is the commit point; everything after it is best-effort and classified
// into the result's sub-process outcomes. The returned error is reserved
// for unexpected faults; business failures come back in the Result.
func (s *DecisionService) FinaliseDecision(ctx context.Context, req FinaliseDecisionRequest) (Result, error) {
	actorID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	// 1. Requested-status check runs before any read.
	if !validateDecisionRequest(req.RequestedStatus) {
		return failed(FailureIncorrectStatusRequested), nil
	}

	// 2. Load the aggregate.
	app, err := s.apps.Get(ctx, req.ApplicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return failed(FailureCouldNotRetrieveApplication), nil
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "load application")
	}

	// 3. State legality.
	if !validateDecisionState(app) {
		return failed(FailureIncorrectApplicationState), nil
	}

	// 4. Only the active field manager may decide.
	if !requireActiveAssignment(app, models.RoleFieldManager, actorID) {
		return failed(FailureUserRoleNotAuthorised), nil
	}

	// 5. The approver's confirmed review settings drive register publication.
	review, err := s.apps.GetApproverReview(ctx, req.ApplicationID)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "load approver review")
	}

	// 6. Commit point: append the new status entry.
	entry := models.StatusHistoryEntry{
		ApplicationID: app.ID,
		Status:        req.RequestedStatus,
		Created:       now,
		CreatedByID:   actorID,
	}
	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.apps.AppendStatusHistory(txCtx, entry)
	}); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "append status history")
	}
	app.StatusHistory = append(app.StatusHistory, entry)

	result := Result{IsSuccess: true}

	// 7. Synchronize the decision public register.
	pub := s.register.PublishDecision(ctx, app, req.RequestedStatus, review.PublishToDecisionRegister, now)
	result.RegisterOutcome = pub.Outcome
	if pub.Outcome == publicregister.OutcomeFailure {
		result.record(OutcomeCouldNotPublishToDecisionPublicRegister)
	}
	if pub.LocalStoreErr != nil {
		result.record(OutcomeCouldNotStoreDecisionDetailsLocally)
	}
	if pub.ConsultationRemovalErr != nil {
		result.record(OutcomeCouldNotRemoveFromConsultationPublicRegister)
	}

	// 8-10. Notify the applicant (cc woodland owner) and assigned staff.
	applicantSent := s.notifyApplicantOfDecision(ctx, app, req, &result)
	s.notifyStaffOfDecision(ctx, app, req)

	// 11. One audit event summarising the whole saga.
	s.audit(ctx, decisionAuditActions[req.RequestedStatus], app, actorID, map[string]string{
		"DecisionPublicRegisterOutcome": string(pub.Outcome),
		"ApplicantNotificationSent":     boolString(applicantSent),
	})

	s.countDecision(string(req.RequestedStatus), result)
	return result, nil
}

// notifyApplicantOfDecision sends the decision notification to the
// applicant with the woodland owner copied in. A failure is classified and
// the saga continues.
func (s *DecisionService) notifyApplicantOfDecision(ctx context.Context, app *models.Application, req FinaliseDecisionRequest, result *Result) bool {
	applicant, err := s.directory.Get(ctx, app.CreatedByID)
	if err != nil {
		s.logger.WarnContext(ctx, "applicant unresolvable for decision notification",
			"application_id", app.ID.String(), "error", err)
		result.record(OutcomeCouldNotSendNotificationToApplicant)
		return false
	}

	n := notify.Notification{
		Type:      notify.TypeInformApplicantOfDecision,
		Recipient: notify.RecipientFor(applicant),
		Data: map[string]string{
			"CaseReference": app.CaseReference,
			"Decision":      string(req.RequestedStatus),
			"Reason":        req.Reason,
		},
	}
	if owner, err := s.directory.Get(ctx, app.WoodlandOwnerID); err == nil && owner.ID != applicant.ID {
		n.CC = append(n.CC, notify.RecipientFor(owner))
	}

	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "applicant decision notification failed",
			"application_id", app.ID.String(), "error", err)
		result.record(OutcomeCouldNotSendNotificationToApplicant)
		return false
	}
	return true
}

// notifyStaffOfDecision sends an informational notification to each staff
// member with an open assignment. Sends are independent; one recipient
// failing never blocks the rest.
func (s *DecisionService) notifyStaffOfDecision(ctx context.Context, app *models.Application, req FinaliseDecisionRequest) {
	staff, err := s.directory.GetMany(ctx, app.AssignedStaff())
	if err != nil {
		s.logger.WarnContext(ctx, "staff unresolvable for decision notification",
			"application_id", app.ID.String(), "error", err)
		return
	}
	for _, member := range notify.DedupeRecipients(staff) {
		n := notify.Notification{
			Type:      notify.TypeInformStaffOfDecision,
			Recipient: notify.RecipientFor(member),
			Data: map[string]string{
				"CaseReference": app.CaseReference,
				"Decision":      string(req.RequestedStatus),
			},
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "staff decision notification failed",
				"application_id", app.ID.String(),
				"recipient", member.Email, "error", err)
		}
	}
}

func (s *DecisionService) audit(ctx context.Context, action audit.AuditEvent, app *models.Application, actorID id.UserID, details map[string]string) {
	event := audit.Event{
		Timestamp:     requestcontext.Now(ctx),
		ApplicationID: app.ID,
		CaseReference: app.CaseReference,
		ActorID:       actorID,
		Action:        string(action),
		RequestID:     requestcontext.RequestID(ctx),
		Details:       details,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emission failed",
			"action", string(action), "application_id", app.ID.String(), "error", err)
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
