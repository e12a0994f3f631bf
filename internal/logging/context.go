package logging

import (
	"context"
	"log/slog"

	"hiretrack/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldProcessID identifies the recruitment process a log line concerns.
	FieldProcessID = "process_id"
	// FieldCandidateID identifies the candidate a log line concerns.
	FieldCandidateID = "candidate_id"
	// FieldInterviewID identifies an interview.
	FieldInterviewID = "interview_id"
	// FieldEventID identifies a notification event in the outbox.
	FieldEventID = "event_id"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.ProcessIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldProcessID, id))
	}
	if id, ok := services.CandidateIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldCandidateID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
