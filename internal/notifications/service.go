package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hiretrack/internal/config"
	"hiretrack/internal/logging"
)

const (
	userAgent            = "hiretrack/0.1.0"
	webhookEventPrefix   = "hiretrack.process."
	webhookSchemaVersion = "1"
)

// Service delivers a notification event to its recipients.
type Service interface {
	Deliver(ctx context.Context, event Event) error
	Name() string
}

// NewService builds the delivery backend selected by notifications.sink.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if cfg == nil {
		return noopService{}
	}
	n := cfg.Notifications
	client := &http.Client{Timeout: cfg.NotificationTimeout()}
	switch n.Sink {
	case "ntfy":
		if strings.TrimSpace(n.NtfyTopic) == "" {
			return noopService{}
		}
		return &ntfyService{
			endpoint: strings.TrimRight(n.NtfyServer, "/") + "/" + strings.TrimLeft(n.NtfyTopic, "/"),
			client:   client,
		}
	case "webhook":
		if strings.TrimSpace(n.WebhookURL) == "" {
			return noopService{}
		}
		return &webhookService{url: n.WebhookURL, client: client}
	case "log":
		return &logService{logger: logging.NewComponentLogger(logger, "notifications")}
	default:
		return noopService{}
	}
}

// Message renders the human-readable text shared by every backend.
func Message(event Event) (title, body string) {
	subject := strings.TrimSpace(event.Subject)
	if subject == "" {
		subject = fmt.Sprintf("Process #%d", event.ProcessID)
	}
	switch event.Kind {
	case KindCreated:
		title = "New process: " + subject
		body = fmt.Sprintf("Process #%d created in state %s", event.ProcessID, event.NewState)
	case KindResponsibleChanged:
		title = "Responsible changed: " + subject
		body = fmt.Sprintf("Process #%d (%s) has new responsible parties", event.ProcessID, event.NewState)
	default:
		title = "Process update: " + subject
		body = fmt.Sprintf("Process #%d moved from %s to %s", event.ProcessID, event.OldState, event.NewState)
	}
	return title, body
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Name() string { return "ntfy" }

// Deliver publishes once per recipient; ntfy forwards each publish to the
// address in the Email header.
func (n *ntfyService) Deliver(ctx context.Context, event Event) error {
	title, body := Message(event)
	tags := []string{"hiretrack", string(event.Kind)}
	priority := ""
	if event.NewState.IsClosed() {
		priority = "high"
	}
	for _, recipient := range event.Recipients {
		if err := n.send(ctx, recipient.Email, title, body, tags, priority); err != nil {
			return fmt.Errorf("notify %s: %w", recipient.Email, err)
		}
	}
	return nil
}

func (n *ntfyService) send(ctx context.Context, email, title, message string, tags []string, priority string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if priority != "" {
		req.Header.Set("Priority", priority)
	}
	if email != "" {
		req.Header.Set("Email", email)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// WebhookEnvelope is the JSON payload POSTed to webhook endpoints.
type WebhookEnvelope struct {
	// Type identifies the notification kind, e.g. hiretrack.process.state_changed.
	Type string `json:"type"`
	// SchemaVersion allows consumers to detect breaking changes.
	SchemaVersion string `json:"schemaVersion"`
	// Timestamp is the RFC3339 time the notification was sent.
	Timestamp string `json:"timestamp"`
	Data      Event  `json:"data"`
}

type webhookService struct {
	url    string
	client *http.Client
}

func (w *webhookService) Name() string { return "webhook" }

func (w *webhookService) Deliver(ctx context.Context, event Event) error {
	envelope := WebhookEnvelope{
		Type:          webhookEventPrefix + string(event.Kind),
		SchemaVersion: webhookSchemaVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Data:          event,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", event.ID)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type logService struct {
	logger *slog.Logger
}

func (l *logService) Name() string { return "log" }

func (l *logService) Deliver(_ context.Context, event Event) error {
	title, _ := Message(event)
	l.logger.Info(title,
		logging.Int64(logging.FieldProcessID, event.ProcessID),
		logging.String(logging.FieldEventID, event.ID),
		logging.String("kind", string(event.Kind)),
		logging.String("old_state", string(event.OldState)),
		logging.String("new_state", string(event.NewState)),
		logging.String("recipients", strings.Join(Emails(event.Recipients), ",")),
	)
	return nil
}

type noopService struct{}

func (noopService) Name() string                         { return "none" }
func (noopService) Deliver(context.Context, Event) error { return nil }
