// Package relay ships audit events from the Postgres outbox to Kafka.
//
// The relay polls audit_outbox for unpublished rows and produces them in
// created order, keyed by aggregate id so per-application ordering survives
// partitioning. Kafka is the downstream source of truth for audit events;
// rows are only marked published after the broker acknowledges.
package relay

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const defaultBatchSize = 100

// Relay polls the outbox table and publishes pending events to Kafka.
type Relay struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

// New constructs a relay. The kgo client is owned by the caller.
func New(db *sql.DB, client *kgo.Client, topic string, interval time.Duration, logger *slog.Logger) *Relay {
	return &Relay{db: db, client: client, topic: topic, interval: interval, logger: logger}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

type outboxRow struct {
	id          string
	aggregateID string
	eventType   string
	payload     []byte
}

// drain publishes one batch of pending rows. Rows that fail to produce stay
// unpublished and are retried on the next tick.
func (r *Relay) drain(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, defaultBatchSize)
	if err != nil {
		return fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var pending []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.aggregateID, &row.eventType, &row.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox rows: %w", err)
	}

	for _, row := range pending {
		record := &kgo.Record{
			Topic: r.topic,
			Key:   []byte(row.aggregateID),
			Value: row.payload,
		}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce %s: %w", row.eventType, err)
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE audit_outbox SET published_at = $1 WHERE id = $2`,
			time.Now(), row.id,
		); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
	}
	return nil
}
