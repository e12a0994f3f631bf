package services_test

import (
	"context"
	"testing"

	"hiretrack/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithProcessID(ctx, 42)
	ctx = services.WithCandidateID(ctx, 7)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ProcessIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected process id: %v %v", id, ok)
	}
	if id, ok := services.CandidateIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("unexpected candidate id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankRequestIDPreservesContext(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
	if _, ok := services.ProcessIDFromContext(ctx); ok {
		t.Fatal("expected no process id value")
	}
}
