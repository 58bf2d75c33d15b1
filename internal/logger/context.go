package logger

import "context"

type ctxKey int

// requestIDKey carries the per-request correlation ID assigned by the
// HTTP middleware.
const requestIDKey ctxKey = iota

// WithRequestID stores a request correlation ID on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation ID carried by ctx, or "" when none
// was set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
