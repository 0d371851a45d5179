// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping this package free of
// net/http lets services and workers depend on it without pulling in transport code.
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//	admin := requestcontext.AdminUsername(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey     struct{}
	requestTimeKey   struct{}
	adminUsernameKey struct{}
	adminRoleKey     struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
	ContextKeyAdminUsername = adminUsernameKey{}
	ContextKeyAdminRole     = adminRoleKey{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, seed loading, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// AdminUsername retrieves the authenticated staff username. The username is
// only ever used to derive a pseudonymous actor handle; it is never audited raw.
func AdminUsername(ctx context.Context) string {
	if u, ok := ctx.Value(ContextKeyAdminUsername).(string); ok {
		return u
	}
	return ""
}

// AdminRole retrieves the authenticated staff role.
func AdminRole(ctx context.Context) string {
	if r, ok := ctx.Value(ContextKeyAdminRole).(string); ok {
		return r
	}
	return ""
}

// WithAdmin injects the authenticated staff identity into the context.
func WithAdmin(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyAdminUsername, username)
	return context.WithValue(ctx, ContextKeyAdminRole, role)
}
