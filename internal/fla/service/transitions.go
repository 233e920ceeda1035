package service

import (
	"coppice/internal/fla/models"
)

// The transition rules below are the whole legal state graph for terminal
// workflow operations. Validation never touches storage: callers pass the
// loaded aggregate, and a rule failure means no write, no notification and
// no success audit happened.

// validateDecisionRequest checks the requested terminal status before
// anything is read. Any value outside the decision set fails immediately.
func validateDecisionRequest(requested models.Status) (ok bool) {
	return models.DecisionStatuses[requested]
}

// validateDecisionState checks that an approve/refuse/refer may run against
// the application's current state.
func validateDecisionState(app *models.Application) bool {
	return app.CurrentStatus() == models.StatusSentForApproval
}

// returnTarget resolves which review stage a SentForApproval application
// returns to: whichever of WoodlandOfficerReview / AdminOfficerReview most
// recently preceded the current entry in the status log.
func returnTarget(app *models.Application) (models.Status, bool) {
	if app.CurrentStatus() != models.StatusSentForApproval {
		return "", false
	}
	return app.StatusBeforeCurrent(func(s models.Status) bool {
		return s == models.StatusWoodlandOfficerReview || s == models.StatusAdminOfficerReview
	})
}

// revertTarget resolves the status a Withdrawn application reverts to: the
// newest pre-withdrawal status, falling back to Submitted when the log
// holds nothing usable.
func revertTarget(app *models.Application) (models.Status, bool) {
	if app.CurrentStatus() != models.StatusWithdrawn {
		return "", false
	}
	target, found := app.StatusBeforeCurrent(func(s models.Status) bool {
		return s != models.StatusWithdrawn
	})
	if !found {
		return models.StatusSubmitted, true
	}
	return target, true
}
