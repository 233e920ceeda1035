package notify

import (
	"context"
	"log/slog"
	"sync"
)

// RecordingDispatcher captures notifications for tests.
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []Notification
	// FailTypes lists notification types whose sends should fail.
	FailTypes map[Type]error
}

func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{FailTypes: make(map[Type]error)}
}

func (d *RecordingDispatcher) Send(_ context.Context, n Notification) error {
	if err, ok := d.FailTypes[n.Type]; ok {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

// Sent returns a copy of everything dispatched so far.
func (d *RecordingDispatcher) Sent() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Notification{}, d.sent...)
}

// SentOfType filters dispatched notifications by type.
func (d *RecordingDispatcher) SentOfType(t Type) []Notification {
	var out []Notification
	for _, n := range d.Sent() {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// LoggingDispatcher writes notifications to the log; used in local
// development where no delivery provider is configured.
type LoggingDispatcher struct {
	Logger *slog.Logger
}

func (d *LoggingDispatcher) Send(ctx context.Context, n Notification) error {
	d.Logger.InfoContext(ctx, "notification dispatched",
		"type", string(n.Type),
		"recipient", n.Recipient.Email,
		"cc_count", len(n.CC))
	return nil
}
