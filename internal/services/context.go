package services

import "context"

type contextKey string

const (
	processIDKey   contextKey = "process_id"
	candidateIDKey contextKey = "candidate_id"
	requestIDKey   contextKey = "request_id"
)

// WithProcessID annotates context with the recruitment process identifier.
func WithProcessID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, processIDKey, id)
}

// ProcessIDFromContext extracts the process identifier if present.
func ProcessIDFromContext(ctx context.Context) (int64, bool) {
	return int64FromContext(ctx, processIDKey)
}

// WithCandidateID annotates context with the candidate identifier.
func WithCandidateID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, candidateIDKey, id)
}

// CandidateIDFromContext extracts the candidate identifier if present.
func CandidateIDFromContext(ctx context.Context) (int64, bool) {
	return int64FromContext(ctx, candidateIDKey)
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

func int64FromContext(ctx context.Context, key contextKey) (int64, bool) {
	switch val := ctx.Value(key).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
