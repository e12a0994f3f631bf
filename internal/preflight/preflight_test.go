package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"hiretrack/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hook":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	if result := CheckEndpoint(context.Background(), "Webhook", srv.URL+"/hook"); !result.Passed {
		t.Fatalf("expected 405 to count as reachable, got: %s", result.Detail)
	}
	if result := CheckEndpoint(context.Background(), "Webhook", srv.URL+"/broken"); result.Passed {
		t.Fatal("expected 5xx to fail")
	}
	if result := CheckEndpoint(context.Background(), "Webhook", "://bad"); result.Passed {
		t.Fatal("expected invalid url to fail")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func minimalConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.DocumentsDir = t.TempDir()
	cfg.Notifications.Sink = "log"
	return &cfg
}

func TestRunAll_LogSinkChecksDirectoriesOnly(t *testing.T) {
	results := RunAll(context.Background(), minimalConfig(t))
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ProbesNtfyHealth(t *testing.T) {
	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case paths <- r.URL.Path:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := minimalConfig(t)
	cfg.Notifications.Sink = "ntfy"
	cfg.Notifications.NtfyServer = srv.URL
	cfg.Notifications.NtfyTopic = "recruiting"

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if sink := results[3]; sink.Name != "ntfy" || !sink.Passed {
		t.Fatalf("unexpected sink result %+v", sink)
	}
	if path := <-paths; path != "/v1/health" {
		t.Fatalf("expected health endpoint, got %q", path)
	}

	cfg.Notifications.NtfyTopic = ""
	if sink := CheckNotificationSink(context.Background(), cfg); sink.Passed {
		t.Fatal("expected missing topic to fail")
	}
}
