package service

import "coppice/internal/publicregister"

// FailureReason is the single definitive pre-condition failure of a
// workflow operation. Pre-condition failures are fail-fast: zero side
// effects, no success audit.
type FailureReason string

const (
	FailureIncorrectStatusRequested    FailureReason = "IncorrectFellingApplicationStatusRequested"
	FailureIncorrectApplicationState   FailureReason = "IncorrectFellingApplicationState"
	FailureUserRoleNotAuthorised       FailureReason = "UserRoleNotAuthorised"
	FailureCouldNotRetrieveApplication FailureReason = "CouldNotRetrieveApplication"
)

// SubProcessOutcome names one classified, non-fatal failure of a step that
// runs after the status transition has committed. The transition is never
// reverted because of these; they are aggregated into the result and
// audited so auxiliary systems can be reconciled out-of-band.
type SubProcessOutcome string

const (
	OutcomeCouldNotPublishToDecisionPublicRegister      SubProcessOutcome = "CouldNotPublishToDecisionPublicRegister"
	OutcomeCouldNotRemoveFromConsultationPublicRegister SubProcessOutcome = "CouldNotRemoveFromConsultationPublicRegister"
	OutcomeCouldNotRemoveFromDecisionPublicRegister     SubProcessOutcome = "CouldNotRemoveFromDecisionPublicRegister"
	OutcomeCouldNotSendNotificationToApplicant          SubProcessOutcome = "CouldNotSendNotificationToApplicant"
	OutcomeCouldNotStoreDecisionDetailsLocally          SubProcessOutcome = "CouldNotStoreDecisionDetailsLocally"
	OutcomeCouldNotStoreCaseNote                        SubProcessOutcome = "CouldNotStoreCaseNote"
)

// Result reports one workflow operation. IsSuccess turns true at the commit
// point (the status history append); sub-process outcomes recorded after
// that never flip it back.
type Result struct {
	IsSuccess          bool
	FailureReason      FailureReason
	SubProcessOutcomes []SubProcessOutcome

	// RegisterOutcome is the classified decision register synchronization
	// outcome, when the operation attempted one.
	RegisterOutcome publicregister.Outcome
}

func failed(reason FailureReason) Result {
	return Result{FailureReason: reason}
}

func (r *Result) record(outcome SubProcessOutcome) {
	r.SubProcessOutcomes = append(r.SubProcessOutcomes, outcome)
}

// Has reports whether the result carries the given sub-process outcome.
func (r Result) Has(outcome SubProcessOutcome) bool {
	for _, o := range r.SubProcessOutcomes {
		if o == outcome {
			return true
		}
	}
	return false
}
