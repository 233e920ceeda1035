package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"coppice/internal/fla/models"
	"coppice/internal/notify"
	id "coppice/pkg/domain"
	dErrors "coppice/pkg/domain-errors"
	"coppice/pkg/platform/audit"
	"coppice/pkg/platform/sentinel"
	"coppice/pkg/requestcontext"
)

// ReturnToReviewRequest sends a SentForApproval case back to whichever
// review stage it came from, with an explanatory case note.
type ReturnToReviewRequest struct {
	ApplicationID id.ApplicationID
	CaseNote      string
}

// ReturnToReview reverts a SentForApproval application to the review stage
// that most recently preceded it. The status append and the reversion audit
// stand even when the case note cannot be stored.
func (s *DecisionService) ReturnToReview(ctx context.Context, req ReturnToReviewRequest) (Result, error) {
	actorID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	app, err := s.apps.Get(ctx, req.ApplicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return failed(FailureCouldNotRetrieveApplication), nil
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "load application")
	}

	target, ok := returnTarget(app)
	if !ok {
		return failed(FailureIncorrectApplicationState), nil
	}
	if !requireActiveAssignment(app, models.RoleFieldManager, actorID) {
		return failed(FailureUserRoleNotAuthorised), nil
	}

	entry := models.StatusHistoryEntry{
		ApplicationID: app.ID,
		Status:        target,
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

	note := models.CaseNote{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		Type:          models.CaseNoteReturnToReview,
		Text:          req.CaseNote,
		CreatedByID:   actorID,
		CreatedAt:     now,
	}
	if err := s.apps.AddCaseNote(ctx, note); err != nil {
		s.logger.WarnContext(ctx, "case note persistence failed",
			"application_id", app.ID.String(), "error", err)
		result.record(OutcomeCouldNotStoreCaseNote)
	}

	s.notifyReviewerOfReturn(ctx, app, target, req.CaseNote)

	// The audit event name differs by target so register reviewers can
	// filter their own queue's reversions.
	action := audit.EventReturnedToAdminOfficerReview
	if target == models.StatusWoodlandOfficerReview {
		action = audit.EventReturnedToWoodlandOfficerReview
	}
	s.audit(ctx, action, app, actorID, map[string]string{
		"ReturnedTo":     string(target),
		"CaseNoteStored": boolString(!result.Has(OutcomeCouldNotStoreCaseNote)),
	})

	s.countDecision("ReturnToReview", result)
	return result, nil
}

// notifyReviewerOfReturn tells the active reviewer of the target stage that
// the case is back in their queue.
func (s *DecisionService) notifyReviewerOfReturn(ctx context.Context, app *models.Application, target models.Status, noteText string) {
	role := models.RoleAdminOfficer
	if target == models.StatusWoodlandOfficerReview {
		role = models.RoleWoodlandOfficer
	}
	reviewerID, ok := app.ActiveAssignee(role)
	if !ok {
		return
	}
	reviewer, err := s.directory.Get(ctx, reviewerID)
	if err != nil {
		return
	}
	n := notify.Notification{
		Type:      notify.TypeInformStaffOfReturnedCase,
		Recipient: notify.RecipientFor(reviewer),
		Data: map[string]string{
			"CaseReference": app.CaseReference,
			"ReturnedTo":    string(target),
			"CaseNote":      noteText,
		},
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "reviewer return notification failed",
			"application_id", app.ID.String(), "error", err)
	}
}

// RevertFromWithdrawn reinstates a Withdrawn application at the status it
// held before withdrawal. Only account administrators may reinstate.
func (s *DecisionService) RevertFromWithdrawn(ctx context.Context, appID id.ApplicationID) (Result, error) {
	actorID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	app, err := s.apps.Get(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return failed(FailureCouldNotRetrieveApplication), nil
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "load application")
	}

	target, ok := revertTarget(app)
	if !ok {
		return failed(FailureIncorrectApplicationState), nil
	}
	if !s.requireAccountAdministrator(ctx, actorID) {
		return failed(FailureUserRoleNotAuthorised), nil
	}

	entry := models.StatusHistoryEntry{
		ApplicationID: app.ID,
		Status:        target,
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
	s.audit(ctx, audit.EventRevertedFromWithdrawn, app, actorID, map[string]string{
		"RevertedTo": string(target),
	})
	s.countDecision("RevertFromWithdrawn", result)
	return result, nil
}

// MarkApprovedInError corrects an approval issued by mistake: the case
// returns to SentForApproval, the decision register entry comes off
// best-effort, and the applicant is told of the correction.
func (s *DecisionService) MarkApprovedInError(ctx context.Context, appID id.ApplicationID, reason string) (Result, error) {
	actorID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	app, err := s.apps.Get(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return failed(FailureCouldNotRetrieveApplication), nil
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "load application")
	}

	if app.CurrentStatus() != models.StatusApproved {
		return failed(FailureIncorrectApplicationState), nil
	}
	if !s.requireAccountAdministrator(ctx, actorID) {
		return failed(FailureUserRoleNotAuthorised), nil
	}

	entry := models.StatusHistoryEntry{
		ApplicationID: app.ID,
		Status:        models.StatusSentForApproval,
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

	if app.PublicRegister.OnDecisionRegister() {
		if err := s.register.RemoveDecision(ctx, app, now); err != nil {
			s.logger.WarnContext(ctx, "decision register removal failed during correction",
				"application_id", app.ID.String(), "error", err)
			result.record(OutcomeCouldNotRemoveFromDecisionPublicRegister)
		}
	}

	if applicant, err := s.directory.Get(ctx, app.CreatedByID); err == nil {
		n := notify.Notification{
			Type:      notify.TypeInformApplicantOfCorrection,
			Recipient: notify.RecipientFor(applicant),
			Data: map[string]string{
				"CaseReference": app.CaseReference,
				"Reason":        reason,
			},
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			result.record(OutcomeCouldNotSendNotificationToApplicant)
		}
	} else {
		result.record(OutcomeCouldNotSendNotificationToApplicant)
	}

	s.audit(ctx, audit.EventApprovedLicenceInError, app, actorID, map[string]string{
		"Reason": reason,
	})
	s.countDecision("MarkApprovedInError", result)
	return result, nil
}
