package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hiretrack/internal/config"
	"hiretrack/internal/logging"
	"hiretrack/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, "hiretrack.log")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("config logger ready")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "hiretrack.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "config logger ready") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerLiftsComponentAndProcess(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithProcessID(context.Background(), 12)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "workflow"))
	logger.Info("state recomputed", logging.String("state", "INTERVIEW_IS_PLANNED"))
	logger.Debug("hidden at info")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "INFO [workflow] Process #12 – state recomputed") {
		t.Fatalf("unexpected header: %q", text)
	}
	if !strings.Contains(text, "    - state: INTERVIEW_IS_PLANNED") {
		t.Fatalf("expected attribute line, got %q", text)
	}
	if strings.Contains(text, "hidden at info") {
		t.Fatalf("debug line should be filtered, got %q", text)
	}
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "delivery failed", "notification_delivery_failed",
		logging.Error(errors.New("timeout")),
		logging.String(logging.FieldImpact, "recipients not notified yet"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode log line %q: %v", content, err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	if entry[logging.FieldEventType] != "notification_delivery_failed" {
		t.Fatalf("expected event_type, got %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] != "check logs for details" {
		t.Fatalf("expected default error hint, got %v", entry[logging.FieldErrorHint])
	}
	if entry[logging.FieldImpact] != "recipients not notified yet" {
		t.Fatalf("expected caller impact to be kept, got %v", entry[logging.FieldImpact])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.ErrorWithContext(logger, "ignored", "noop")
	logging.WarnWithContext(nil, "ignored", "noop")
}
