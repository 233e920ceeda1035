// Package service implements the application decision workflow: the
// approve/refuse/refer, return-to-review, revert-from-withdrawn and
// approved-in-error use cases. Each operation is one saga: validate the
// transition, authorize the actor, append the status entry (the commit
// point), then run the best-effort post-commit steps with per-step outcome
// classification.
package service

import (
	"context"
	"log/slog"
	"time"

	"coppice/internal/fla/models"
	"coppice/internal/notify"
	"coppice/internal/platform/metrics"
	"coppice/internal/publicregister"
	"coppice/internal/users"
	id "coppice/pkg/domain"
	"coppice/pkg/platform/audit"
)

// ApplicationStore is what the decision workflow needs from persistence.
type ApplicationStore interface {
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	AppendStatusHistory(ctx context.Context, entry models.StatusHistoryEntry) error
	AddCaseNote(ctx context.Context, note models.CaseNote) error
	GetApproverReview(ctx context.Context, appID id.ApplicationID) (models.ApproverReview, error)
}

// RegisterSynchronizer wraps public register calls with outcome
// classification.
type RegisterSynchronizer interface {
	PublishDecision(ctx context.Context, app *models.Application, decision models.Status, publishRequested bool, now time.Time) publicregister.PublishResult
	RemoveDecision(ctx context.Context, app *models.Application, now time.Time) error
}

// AuditEmitter appends immutable audit events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx provides the transactional boundary around the commit point.
// Implementations may wrap a database transaction or, in-memory, nothing.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// noopTx runs the function directly; the in-memory store is its own unit
// of consistency.
type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// DecisionService orchestrates the terminal workflow operations.
type DecisionService struct {
	apps      ApplicationStore
	register  RegisterSynchronizer
	notifier  notify.Dispatcher
	directory users.Directory
	auditor   AuditEmitter
	tx        StoreTx
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures the DecisionService.
type Option func(*DecisionService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *DecisionService) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *DecisionService) { s.metrics = m }
}

func WithTx(tx StoreTx) Option {
	return func(s *DecisionService) { s.tx = tx }
}

// New constructs a DecisionService.
func New(apps ApplicationStore, register RegisterSynchronizer, notifier notify.Dispatcher, directory users.Directory, auditor AuditEmitter, opts ...Option) *DecisionService {
	s := &DecisionService{
		apps:      apps,
		register:  register,
		notifier:  notifier,
		directory: directory,
		auditor:   auditor,
		tx:        noopTx{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireActiveAssignment checks the actor holds the open assignment for
// the role. Runs after state legality, before any mutation.
func requireActiveAssignment(app *models.Application, role models.Role, actorID id.UserID) bool {
	assignee, ok := app.ActiveAssignee(role)
	return ok && assignee == actorID
}

// requireAccountAdministrator checks the actor's directory account type.
// Administrator operations hang off the account, not an assignment.
func (s *DecisionService) requireAccountAdministrator(ctx context.Context, actorID id.UserID) bool {
	user, err := s.directory.Get(ctx, actorID)
	if err != nil {
		return false
	}
	return user.AccountType == users.AccountAccountAdministrator
}

func (s *DecisionService) countDecision(action string, result Result) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if !result.IsSuccess {
		outcome = string(result.FailureReason)
	}
	s.metrics.CountDecision(action, outcome)
	for _, sub := range result.SubProcessOutcomes {
		s.metrics.CountSubProcessFailure(string(sub))
	}
}
