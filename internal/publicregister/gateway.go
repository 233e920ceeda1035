// Package publicregister wraps the external public register (an Esri-backed
// system) behind a gateway port and classifies synchronization outcomes so
// the workflow can treat register drift as a recoverable, auditable fact
// rather than an operation failure.
package publicregister

import (
	"context"
	"time"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway.go -package=mocks Gateway

// Gateway is the external register contract. Calls are made exactly once
// per synchronization attempt; retrying is left to out-of-band
// reconciliation driven by the audit trail.
type Gateway interface {
	AddCaseToDecisionRegister(ctx context.Context, esriID int64, caseReference, statusText string, publishedAt time.Time) error
	RemoveCaseFromDecisionRegister(ctx context.Context, esriID int64, caseReference string) error
	RemoveCaseFromConsultationRegister(ctx context.Context, esriID int64, caseReference string, removedAt time.Time) error
	GetCaseCommentsByCaseReference(ctx context.Context, caseReference string) ([]CaseComment, error)
}

// CaseComment is one public comment recorded against a consultation case.
type CaseComment struct {
	CaseReference string    `json:"case_reference"`
	Author        string    `json:"author"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}
