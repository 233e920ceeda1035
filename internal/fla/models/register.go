package models

import "time"

// RegisterKind distinguishes the two public registers a case can appear on.
type RegisterKind string

const (
	ConsultationRegister RegisterKind = "consultation"
	DecisionRegister     RegisterKind = "decision"
)

// PublicRegisterRecord tracks a case's presence on the external public
// registers. Created when the application first reaches a register-relevant
// status; mutated by the synchronizer on publish/removal; never deleted.
type PublicRegisterRecord struct {
	// EsriID is the external register's key for this case. Nil until the
	// case is first published.
	EsriID *int64

	// Exempt indicates the case must not be published at all.
	Exempt       bool
	ExemptReason string

	ConsultationPublishedAt *time.Time
	ConsultationExpiresAt   *time.Time
	ConsultationRemovedAt   *time.Time

	DecisionPublishedAt *time.Time
	DecisionExpiresAt   *time.Time
	DecisionRemovedAt   *time.Time
}

// OnConsultationRegister reports whether the case is currently live on the
// consultation register.
func (r *PublicRegisterRecord) OnConsultationRegister() bool {
	return r != nil && r.EsriID != nil && r.ConsultationPublishedAt != nil && r.ConsultationRemovedAt == nil
}

// OnDecisionRegister reports whether the case is currently live on the
// decision register.
func (r *PublicRegisterRecord) OnDecisionRegister() bool {
	return r != nil && r.EsriID != nil && r.DecisionPublishedAt != nil && r.DecisionRemovedAt == nil
}
