package publicregister

import (
	"context"
	"log/slog"
	"time"

	"coppice/internal/fla/models"
	id "coppice/pkg/domain"
)

// Outcome classifies one register synchronization attempt. Exempt is a
// valid terminal outcome, not an error.
type Outcome string

const (
	OutcomeSuccess Outcome = "Success"
	OutcomeFailure Outcome = "Failure"
	OutcomeExempt  Outcome = "Exempt"
)

// RegisterStore persists the local projection of register state.
type RegisterStore interface {
	SetDecisionRegisterDetails(ctx context.Context, appID id.ApplicationID, publishedAt, expiresAt time.Time) error
	SetRemovalDate(ctx context.Context, appID id.ApplicationID, kind models.RegisterKind, removedAt time.Time) error
}

// DefaultDecisionExpiryDays is how long a decision stays on the public
// register when no override is configured.
const DefaultDecisionExpiryDays = 28

// Synchronizer wraps gateway calls with outcome classification and keeps
// the local register projection in step with successful external writes.
type Synchronizer struct {
	gateway            Gateway
	store              RegisterStore
	decisionExpiryDays int
	logger             *slog.Logger
}

// Option configures the Synchronizer.
type Option func(*Synchronizer)

// WithDecisionExpiryDays overrides the decision register expiry window.
func WithDecisionExpiryDays(days int) Option {
	return func(s *Synchronizer) {
		if days > 0 {
			s.decisionExpiryDays = days
		}
	}
}

// WithLogger sets a logger for classification decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// New constructs a Synchronizer.
func New(gateway Gateway, store RegisterStore, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		gateway:            gateway,
		store:              store,
		decisionExpiryDays: DefaultDecisionExpiryDays,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublishResult carries the classified outcome of a decision publication
// plus the two independent best-effort follow-ups. The caller maps each
// channel onto its own sub-process outcome.
type PublishResult struct {
	Outcome Outcome
	// LocalStoreErr is set when the gateway write succeeded but the local
	// projection could not be updated: the external register is now
	// authoritative and the local record is stale.
	LocalStoreErr error
	// ConsultationRemovalErr is set when removing the now-decided case
	// from the consultation register failed.
	ConsultationRemovalErr error
}

// PublishDecision publishes a decided case to the decision register.
// publishRequested reflects the approver's review settings; when false, or
// when the record carries an exemption, the attempt classifies as Exempt
// and no gateway call is made.
func (s *Synchronizer) PublishDecision(ctx context.Context, app *models.Application, decision models.Status, publishRequested bool, now time.Time) PublishResult {
	record := app.PublicRegister
	if !publishRequested || (record != nil && record.Exempt) {
		s.logger.InfoContext(ctx, "decision register publication exempt",
			"case_reference", app.CaseReference,
			"publish_requested", publishRequested)
		return PublishResult{Outcome: OutcomeExempt}
	}
	if record == nil || record.EsriID == nil {
		s.logger.WarnContext(ctx, "decision register publication impossible: no external register id",
			"case_reference", app.CaseReference)
		return PublishResult{Outcome: OutcomeFailure}
	}

	if err := s.gateway.AddCaseToDecisionRegister(ctx, *record.EsriID, app.CaseReference, string(decision), now); err != nil {
		s.logger.ErrorContext(ctx, "decision register publication failed",
			"case_reference", app.CaseReference, "error", err)
		return PublishResult{Outcome: OutcomeFailure}
	}

	result := PublishResult{Outcome: OutcomeSuccess}
	expiresAt := now.AddDate(0, 0, s.decisionExpiryDays)
	if err := s.store.SetDecisionRegisterDetails(ctx, app.ID, now, expiresAt); err != nil {
		result.LocalStoreErr = err
	}

	if record.OnConsultationRegister() {
		if err := s.RemoveConsultation(ctx, app, now); err != nil {
			result.ConsultationRemovalErr = err
		}
	}
	return result
}

// RemoveDecision takes a published decision off the decision register and
// stamps the local removal date. The gateway error is returned unclassified
// because batch callers treat it as the item's critical failure.
func (s *Synchronizer) RemoveDecision(ctx context.Context, app *models.Application, now time.Time) error {
	record := app.PublicRegister
	if err := s.gateway.RemoveCaseFromDecisionRegister(ctx, *record.EsriID, app.CaseReference); err != nil {
		return err
	}
	return s.store.SetRemovalDate(ctx, app.ID, models.DecisionRegister, now)
}

// RemoveConsultation takes a case off the consultation register and stamps
// the local removal date.
func (s *Synchronizer) RemoveConsultation(ctx context.Context, app *models.Application, now time.Time) error {
	record := app.PublicRegister
	if err := s.gateway.RemoveCaseFromConsultationRegister(ctx, *record.EsriID, app.CaseReference, now); err != nil {
		return err
	}
	return s.store.SetRemovalDate(ctx, app.ID, models.ConsultationRegister, now)
}
