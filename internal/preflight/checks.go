package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"hiretrack/internal/config"
)

const sinkCheckTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckNotificationSink probes the ntfy server or webhook host. The log and
// none sinks need no check and return a zero Result.
func CheckNotificationSink(ctx context.Context, cfg *config.Config) Result {
	n := cfg.Notifications
	switch n.Sink {
	case "ntfy":
		if strings.TrimSpace(n.NtfyTopic) == "" {
			return Result{Name: "ntfy", Detail: "missing topic"}
		}
		return CheckEndpoint(ctx, "ntfy", n.NtfyServer+"/v1/health")
	case "webhook":
		if strings.TrimSpace(n.WebhookURL) == "" {
			return Result{Name: "Webhook", Detail: "missing url"}
		}
		return CheckEndpoint(ctx, "Webhook", n.WebhookURL)
	default:
		return Result{}
	}
}

// CheckEndpoint issues a HEAD request and treats any non-5xx answer as
// reachable. Webhooks commonly reject HEAD with 405, which still proves the
// host is up.
func CheckEndpoint(ctx context.Context, name, url string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, sinkCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, url, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url (%v)", err)}
	}
	client := &http.Client{Timeout: sinkCheckTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("unhealthy (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

func summarizeNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (endpoint unreachable)"
	}
	return err.Error()
}
