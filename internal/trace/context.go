package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	runIDKey     contextKey = "run_id"
)

func generateID(prefix string) string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return prefix + "000000"
	}
	return prefix + hex.EncodeToString(b)
}

// GenerateRequestID generates an API request ID in format "req-XXXXXX"
func GenerateRequestID() string {
	return generateID("req-")
}

// GenerateRunID generates a mirror run ID in format "run-XXXXXX"
func GenerateRunID() string {
	return generateID("run-")
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRunID adds a mirror run ID to context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID returns the run ID from context, generating a fresh one when
// absent
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v
	}
	return GenerateRunID()
}
