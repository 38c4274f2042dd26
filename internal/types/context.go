package types

import (
	"context"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	testModeKey  contextKey = "test_mode"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTestMode marks the context as a dry run.
func WithTestMode(ctx context.Context, testMode bool) context.Context {
	return context.WithValue(ctx, testModeKey, testMode)
}

// IsTestMode reports whether the context was marked as a dry run.
func IsTestMode(ctx context.Context) bool {
	v, _ := ctx.Value(testModeKey).(bool)
	return v
}
