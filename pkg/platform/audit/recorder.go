package audit

import (
	"context"
	"log/slog"
	"time"
)

// Recorder is the Emitter implementation services use. Writes are synchronous
// so an event is in the outbox before the operation returns, but the caller
// decides whether an append failure fails the operation: workflow sagas treat
// audit as a best-effort post-commit step and log-and-continue.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for append failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Emit persists an audit event. The category is always derived from the
// action so callers cannot misroute an event.
func (r *Recorder) Emit(ctx context.Context, event Event) error {
	event.Category = AuditEvent(event.Action).Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := r.store.Append(ctx, event); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "audit append failed",
				"action", event.Action,
				"application_id", event.ApplicationID.String(),
				"error", err)
		}
		return err
	}
	return nil
}
