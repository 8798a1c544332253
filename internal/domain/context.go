// Package domain provides the core storefront types, coded errors and
// context helpers for folio.
package domain

import (
	"context"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey contextKey = iota

	// mergeIDContextKey stores the id of a running local-to-remote cart merge.
	mergeIDContextKey
)

// NewContextWithRequestID returns a new context with the request ID attached.
// The API client forwards it as X-Request-ID.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}

// NewContextWithMergeID tags a context as belonging to one cart merge run.
func NewContextWithMergeID(ctx context.Context, mergeID string) context.Context {
	return context.WithValue(ctx, mergeIDContextKey, mergeID)
}

// MergeIDFromContext returns the merge run id, or "".
func MergeIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(mergeIDContextKey).(string)
	return id
}
