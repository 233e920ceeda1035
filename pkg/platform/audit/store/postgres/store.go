package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "coppice/pkg/platform/audit"
	txcontext "coppice/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the audit_outbox table and shipped to Kafka by the
// relay, so an event recorded inside an item transaction commits or rolls
// back with that item.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure shipped to Kafka. Field names match
// audit.Event so the downstream consumer can deserialize directly.
type outboxPayload struct {
	ID            string            `json:"ID"`
	Category      string            `json:"Category"`
	Timestamp     string            `json:"Timestamp"`
	ApplicationID string            `json:"ApplicationID,omitempty"`
	CaseReference string            `json:"CaseReference,omitempty"`
	ActorID       string            `json:"ActorID,omitempty"`
	Source        string            `json:"Source,omitempty"`
	Action        string            `json:"Action"`
	Outcome       string            `json:"Outcome,omitempty"`
	Reason        string            `json:"Reason,omitempty"`
	RequestID     string            `json:"RequestID,omitempty"`
	Details       map[string]string `json:"Details,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action; eventCategories is the source of truth.
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:            eventID.String(),
		Category:      string(category),
		Timestamp:     event.Timestamp.Format(time.RFC3339Nano),
		CaseReference: event.CaseReference,
		Source:        event.Source,
		Action:        event.Action,
		Outcome:       event.Outcome,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
		Details:       event.Details,
	}
	if !event.ApplicationID.IsNil() {
		payload.ApplicationID = event.ApplicationID.String()
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateID := eventID.String()
	if !event.ApplicationID.IsNil() {
		aggregateID = event.ApplicationID.String()
	}

	query := `
		INSERT INTO audit_outbox (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}
