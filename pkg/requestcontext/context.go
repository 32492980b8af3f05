// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them without importing
// net/http. Tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithCallerEmail(ctx, "ops@example.com")
package requestcontext

import (
	"context"
	"time"
)

type (
	callerEmailKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyCallerEmail = callerEmailKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// CallerEmail retrieves the authenticated caller's email from the context.
// Returns "" if no caller was authenticated.
func CallerEmail(ctx context.Context) string {
	if email, ok := ctx.Value(ContextKeyCallerEmail).(string); ok {
		return email
	}
	return ""
}

// WithCallerEmail injects an authenticated caller email into the context.
func WithCallerEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ContextKeyCallerEmail, email)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from the context. Falls back to
// time.Now() for non-HTTP contexts such as workers and tests that don't
// pin a time.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins a specific time in a context. Handlers set this once per
// request so every timestamp taken during the request agrees.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
