// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services consume them. Keeping this package
// free of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	customerID := requestcontext.CustomerID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "curl/8.0")
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	customerIDKey    struct{}
	customerEmailKey struct{}
	clientIPKey      struct{}
	userAgentKey     struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyCustomerID    = customerIDKey{}
	ContextKeyCustomerEmail = customerEmailKey{}
	ContextKeyClientIP      = clientIPKey{}
	ContextKeyUserAgent     = userAgentKey{}
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// CustomerID retrieves the authenticated customer ID from the context.
func CustomerID(ctx context.Context) string {
	if customerID, ok := ctx.Value(ContextKeyCustomerID).(string); ok {
		return customerID
	}
	return ""
}

// WithCustomerID injects a customer ID into the context.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	return context.WithValue(ctx, ContextKeyCustomerID, customerID)
}

// CustomerEmail retrieves the authenticated customer email from the context.
func CustomerEmail(ctx context.Context) string {
	if email, ok := ctx.Value(ContextKeyCustomerEmail).(string); ok {
		return email
	}
	return ""
}

// WithCustomerEmail injects a customer email into the context.
func WithCustomerEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ContextKeyCustomerEmail, email)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

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
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Keeps every operation within one request on the same "now", and lets
// tests pin the clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
