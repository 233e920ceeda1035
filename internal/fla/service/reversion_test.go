package service

import (
	"context"
	"errors"
	"time"

	"coppice/internal/fla/models"
	"coppice/internal/notify"
	"coppice/internal/users"
	id "coppice/pkg/domain"
	"coppice/pkg/platform/audit"
)

// failingNoteStore makes every case note write fail while the rest of the
// store behaves normally.
type failingNoteStore struct {
	ApplicationStore
}

func (failingNoteStore) AddCaseNote(context.Context, models.CaseNote) error {
	return errors.New("notes table unavailable")
}

// =============================================================================
// ReturnToReview
// =============================================================================

func (s *DecisionServiceSuite) TestReturnToReview_ReturnsToPrecedingStage() {
	woodlandOfficer := users.User{ID: id.NewUserID(), FirstName: "Wes", LastName: "Officer", Email: "wes.officer@forestry.example", AccountType: users.AccountInternalUser}
	s.directory.Put(woodlandOfficer)

	app := s.newApplicationWith(func(a *models.Application) {
		a.AssigneeHistory = append(a.AssigneeHistory, models.AssigneeHistoryEntry{
			ApplicationID: a.ID,
			Role:          models.RoleWoodlandOfficer,
			UserID:        woodlandOfficer.ID,
			AssignedAt:    s.now.Add(-30 * 24 * time.Hour),
		})
	})

	result, err := s.service.ReturnToReview(s.ctxAs(s.fieldManager), ReturnToReviewRequest{
		ApplicationID: app.ID,
		CaseNote:      "felling map does not match the walk survey",
	})
	s.Require().NoError(err)

	s.Run("the case returns to the stage that preceded approval", func() {
		s.True(result.IsSuccess)
		s.Equal(models.StatusWoodlandOfficerReview, s.currentStatus(app.ID))
	})

	s.Run("the explanatory case note is stored", func() {
		notes, err := s.store.ListCaseNotes(context.Background(), app.ID)
		s.Require().NoError(err)
		s.Require().Len(notes, 1)
		s.Equal(models.CaseNoteReturnToReview, notes[0].Type)
		s.Equal("felling map does not match the walk survey", notes[0].Text)
		s.Equal(s.fieldManager.ID, notes[0].CreatedByID)
	})

	s.Run("the active reviewer of the target stage is told", func() {
		sent := s.notifier.SentOfType(notify.TypeInformStaffOfReturnedCase)
		s.Require().Len(sent, 1)
		s.Equal(woodlandOfficer.Email, sent[0].Recipient.Email)
		s.Equal(string(models.StatusWoodlandOfficerReview), sent[0].Data["ReturnedTo"])
	})

	s.Run("the audit action names the target stage", func() {
		events, err := s.auditStore.ListByApplication(context.Background(), app.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventReturnedToWoodlandOfficerReview), events[0].Action)
		s.Equal("true", events[0].Details["CaseNoteStored"])
	})
}

func (s *DecisionServiceSuite) TestReturnToReview_TargetSelection() {
	s.Run("the newest review stage wins when both appear in the log", func() {
		app := s.newApplicationWith(func(a *models.Application) {
			a.StatusHistory = append(a.StatusHistory, models.StatusHistoryEntry{
				ApplicationID: a.ID,
				Status:        models.StatusAdminOfficerReview,
				Created:       s.now.Add(-20 * 24 * time.Hour),
				CreatedByID:   s.fieldManager.ID,
			})
		})

		result, err := s.service.ReturnToReview(s.ctxAs(s.fieldManager), ReturnToReviewRequest{
			ApplicationID: app.ID,
			CaseNote:      "needs another constraints check",
		})
		s.Require().NoError(err)
		s.True(result.IsSuccess)
		// AdminOfficerReview at -20d is newer than WoodlandOfficerReview
		// at -30d in the seeded history.
		s.Equal(models.StatusAdminOfficerReview, s.currentStatus(app.ID))

		events, err := s.auditStore.ListByApplication(context.Background(), app.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventReturnedToAdminOfficerReview), events[0].Action)
	})

	s.Run("a case outside SentForApproval cannot be returned", func() {
		app := s.newApplicationWith(func(a *models.Application) {
			a.StatusHistory = append(a.StatusHistory, models.StatusHistoryEntry{
				ApplicationID: a.ID,
				Status:        models.StatusApproved,
				Created:       s.now.Add(-time.Hour),
				CreatedByID:   s.fieldManager.ID,
			})
		})
		result, err := s.service.ReturnToReview(s.ctxAs(s.fieldManager), ReturnToReviewRequest{ApplicationID: app.ID})
		s.Require().NoError(err)
		s.Equal(FailureIncorrectApplicationState, result.FailureReason)
	})

	s.Run("only the active field manager may return a case", func() {
		app := s.newApplication()
		result, err := s.service.ReturnToReview(s.ctxAs(s.admin), ReturnToReviewRequest{ApplicationID: app.ID})
		s.Require().NoError(err)
		s.Equal(FailureUserRoleNotAuthorised, result.FailureReason)
		s.Equal(models.StatusSentForApproval, s.currentStatus(app.ID))
	})
}

func (s *DecisionServiceSuite) TestReturnToReview_CaseNoteFailureDoesNotRevert() {
	app := s.newApplication()
	svc := New(failingNoteStore{s.store}, s.register, s.notifier, s.directory,
		audit.NewRecorder(s.auditStore))

	result, err := svc.ReturnToReview(s.ctxAs(s.fieldManager), ReturnToReviewRequest{
		ApplicationID: app.ID,
		CaseNote:      "survey photos missing",
	})
	s.Require().NoError(err)

	s.Run("the reversion stands with the note failure classified", func() {
		s.True(result.IsSuccess)
		s.True(result.Has(OutcomeCouldNotStoreCaseNote))
		s.Equal(models.StatusWoodlandOfficerReview, s.currentStatus(app.ID))
	})

	s.Run("the audit event still fires and shows the lost note", func() {
		events, err := s.auditStore.ListByApplication(context.Background(), app.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal("false", events[0].Details["CaseNoteStored"])
	})
}

// =============================================================================
// RevertFromWithdrawn
// =============================================================================

func (s *DecisionServiceSuite) newWithdrawnApplication() *models.Application {
	return s.newApplicationWith(func(a *models.Application) {
		a.StatusHistory = append(a.StatusHistory, models.StatusHistoryEntry{
			ApplicationID: a.ID,
			Status:        models.StatusWithdrawn,
			Created:       s.now.Add(-2 * 24 * time.Hour),
			CreatedByID:   s.applicant.ID,
		})
	})
}

func (s *DecisionServiceSuite) TestRevertFromWithdrawn() {
	s.Run("administrator reinstates at the pre-withdrawal status", func() {
		app := s.newWithdrawnApplication()

		result, err := s.service.RevertFromWithdrawn(s.ctxAs(s.admin), app.ID)
		s.Require().NoError(err)
		s.True(result.IsSuccess)
		s.Equal(models.StatusSentForApproval, s.currentStatus(app.ID))

		events, err := s.auditStore.ListByApplication(context.Background(), app.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventRevertedFromWithdrawn), events[0].Action)
		s.Equal(string(models.StatusSentForApproval), events[0].Details["RevertedTo"])
	})

	s.Run("a log holding only withdrawals falls back to Submitted", func() {
		app := s.newApplicationWith(func(a *models.Application) {
			a.StatusHistory = []models.StatusHistoryEntry{
				{ApplicationID: a.ID, Status: models.StatusWithdrawn, Created: s.now.Add(-time.Hour), CreatedByID: s.applicant.ID},
			}
		})
		result, err := s.service.RevertFromWithdrawn(s.ctxAs(s.admin), app.ID)
		s.Require().NoError(err)
		s.True(result.IsSuccess)
		s.Equal(models.StatusSubmitted, s.currentStatus(app.ID))
	})

	s.Run("non-withdrawn application is rejected", func() {
		app := s.newApplication()
		result, err := s.service.RevertFromWithdrawn(s.ctxAs(s.admin), app.ID)
		s.Require().NoError(err)
		s.Equal(FailureIncorrectApplicationState, result.FailureReason)
	})

	s.Run("internal staff without the administrator account type are refused", func() {
		app := s.newWithdrawnApplication()
		result, err := s.service.RevertFromWithdrawn(s.ctxAs(s.fieldManager), app.ID)
		s.Require().NoError(err)
		s.Equal(FailureUserRoleNotAuthorised, result.FailureReason)
		s.Equal(models.StatusWithdrawn, s.currentStatus(app.ID))
	})
}

// =============================================================================
// MarkApprovedInError
// =============================================================================

func (s *DecisionServiceSuite) newApprovedApplication() *models.Application {
	return s.newApplicationWith(func(a *models.Application) {
		a.StatusHistory = append(a.StatusHistory, models.StatusHistoryEntry{
			ApplicationID: a.ID,
			Status:        models.StatusApproved,
			Created:       s.now.Add(-24 * time.Hour),
			CreatedByID:   s.fieldManager.ID,
		})
		publishedAt := s.now.Add(-24 * time.Hour)
		a.PublicRegister.DecisionPublishedAt = &publishedAt
	})
}

func (s *DecisionServiceSuite) TestMarkApprovedInError() {
	s.Run("correction reopens the approval stage and clears the register", func() {
		app := s.newApprovedApplication()

		result, err := s.service.MarkApprovedInError(s.ctxAs(s.admin), app.ID, "wrong case approved")
		s.Require().NoError(err)
		s.True(result.IsSuccess)
		s.Empty(result.SubProcessOutcomes)
		s.Equal(models.StatusSentForApproval, s.currentStatus(app.ID))
		s.Equal(1, s.register.removeCalls)

		sent := s.notifier.SentOfType(notify.TypeInformApplicantOfCorrection)
		s.Require().Len(sent, 1)
		s.Equal(s.applicant.Email, sent[0].Recipient.Email)
		s.Equal("wrong case approved", sent[0].Data["Reason"])

		events, err := s.auditStore.ListByApplication(context.Background(), app.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventApprovedLicenceInError), events[0].Action)
	})

	s.Run("register removal failure is classified, not fatal", func() {
		app := s.newApprovedApplication()
		s.register.removeErr = errors.New("bridge down")

		result, err := s.service.MarkApprovedInError(s.ctxAs(s.admin), app.ID, "duplicate approval")
		s.Require().NoError(err)
		s.True(result.IsSuccess)
		s.True(result.Has(OutcomeCouldNotRemoveFromDecisionPublicRegister))
		s.Equal(models.StatusSentForApproval, s.currentStatus(app.ID))
	})

	s.Run("no removal is attempted when the decision was never published", func() {
		app := s.newApplicationWith(func(a *models.Application) {
			a.StatusHistory = append(a.StatusHistory, models.StatusHistoryEntry{
				ApplicationID: a.ID,
				Status:        models.StatusApproved,
				Created:       s.now.Add(-24 * time.Hour),
				CreatedByID:   s.fieldManager.ID,
			})
		})
		before := s.register.removeCalls

		result, err := s.service.MarkApprovedInError(s.ctxAs(s.admin), app.ID, "approved before review completed")
		s.Require().NoError(err)
		s.True(result.IsSuccess)
		s.Equal(before, s.register.removeCalls)
	})

	s.Run("only administrators may correct an approval", func() {
		app := s.newApprovedApplication()
		result, err := s.service.MarkApprovedInError(s.ctxAs(s.fieldManager), app.ID, "not mine to fix")
		s.Require().NoError(err)
		s.Equal(FailureUserRoleNotAuthorised, result.FailureReason)
		s.Equal(models.StatusApproved, s.currentStatus(app.ID))
	})
}
