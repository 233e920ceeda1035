package audit

import (
	"context"
	"time"

	id "coppice/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: decisions, withdrawals, approved-in-error corrections.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to monitoring and forensics.
	// Examples: rejected transitions, sub-process failures in batch jobs.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. Examples: register removals, final action date extensions.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from workflow logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	ApplicationID id.ApplicationID
	CaseReference string
	// ActorID is the user who performed the action. Left as the zero id
	// for system-driven batch jobs, which set Source instead.
	ActorID id.UserID
	// Source names the batch job when no human actor is involved.
	Source    string
	Action    string
	Outcome   string
	Reason    string
	RequestID string
	// Details carries the event-specific structured payload, e.g. the
	// classified public register outcome or the new final action date.
	Details map[string]string
}

type AuditEvent string

const (
	// Decision events
	EventApplicationApproved AuditEvent = "FellingLicenceApplicationApproved"
	EventApplicationRefused  AuditEvent = "FellingLicenceApplicationRefused"
	EventApplicationReferred AuditEvent = "FellingLicenceApplicationReferredToLocalAuthority"

	// Reversion events
	EventReturnedToWoodlandOfficerReview AuditEvent = "FellingLicenceApplicationReturnedToWoodlandOfficerReview"
	EventReturnedToAdminOfficerReview    AuditEvent = "FellingLicenceApplicationReturnedToAdminOfficerReview"
	EventRevertedFromWithdrawn           AuditEvent = "FellingLicenceApplicationRevertedFromWithdrawn"
	EventApprovedLicenceInError          AuditEvent = "ApprovedFellingLicenceInError"

	// Batch reconciliation events
	EventFinalActionDateUpdated             AuditEvent = "FellingLicenceApplicationFinalActionDateUpdated"
	EventFinalActionDateUpdateFailure       AuditEvent = "FellingLicenceApplicationFinalActionDateUpdateFailure"
	EventVoluntaryWithdrawal                AuditEvent = "FellingLicenceApplicationVoluntaryWithdrawal"
	EventVoluntaryWithdrawalFailure         AuditEvent = "FellingLicenceApplicationVoluntaryWithdrawalFailure"
	EventConsultationRegisterRemoval        AuditEvent = "ConsultationPublicRegisterApplicationRemoval"
	EventConsultationRegisterRemovalFailure AuditEvent = "ConsultationPublicRegisterApplicationRemovalFailure"
	EventDecisionRegisterRemoval            AuditEvent = "DecisionPublicRegisterApplicationRemoval"
	EventDecisionRegisterRemovalFailure     AuditEvent = "DecisionPublicRegisterApplicationRemovalFailure"
)

// eventCategories maps each audit event to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: failures that need investigation and alerting.
// Operations: routine activity, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	EventApplicationApproved:    CategoryCompliance,
	EventApplicationRefused:     CategoryCompliance,
	EventApplicationReferred:    CategoryCompliance,
	EventVoluntaryWithdrawal:    CategoryCompliance,
	EventApprovedLicenceInError: CategoryCompliance,

	EventFinalActionDateUpdateFailure:       CategorySecurity,
	EventVoluntaryWithdrawalFailure:         CategorySecurity,
	EventConsultationRegisterRemovalFailure: CategorySecurity,
	EventDecisionRegisterRemovalFailure:     CategorySecurity,

	EventReturnedToWoodlandOfficerReview: CategoryOperations,
	EventReturnedToAdminOfficerReview:    CategoryOperations,
	EventRevertedFromWithdrawn:           CategoryOperations,
	EventFinalActionDateUpdated:          CategoryOperations,
	EventConsultationRegisterRemoval:     CategoryOperations,
	EventDecisionRegisterRemoval:         CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. The Postgres implementation writes to the
// transactional outbox; the in-memory implementation backs tests.
type Store interface {
	Append(ctx context.Context, event Event) error
}
