// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware (or a worker loop) sets values; services read them without
// depending on net/http. The request time accessor doubles as the injected
// clock: every timestamp the workflow writes is read through Now(ctx), so
// tests pin time with WithTime and batch jobs stamp one time per run.
//
// Usage in services (read values):
//
//	actorID := requestcontext.UserID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests and workers (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithUserID(ctx, actorID)
package requestcontext

import (
	"context"
	"time"

	id "coppice/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// UserID retrieves the acting user id from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects an acting user id into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// RequestID retrieves the correlation id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (non-HTTP contexts without a batch time).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Used by service unit
// tests, batch jobs that need one consistent time per run, and middleware.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
