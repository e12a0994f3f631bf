package testsupport

import (
	"path/filepath"
	"testing"

	"hiretrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Notifications default to the noop sink so tests never reach the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DocumentsDir = filepath.Join(base, "documents")
	cfgVal.Paths.EnvFile = ""
	cfgVal.Anonymize.Salt = "test-salt"
	cfgVal.Notifications.Sink = "none"
	cfgVal.Notifications.RatePerMinute = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSalt overrides the anonymization salt.
func WithSalt(salt string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Anonymize.Salt = salt
	}
}

// WithHREmail copies the given mailbox on every notification.
func WithHREmail(email string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.HREmail = email
	}
}

// WithWebhook points the notification sink at a test server.
func WithWebhook(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.Sink = "webhook"
		b.cfg.Notifications.WebhookURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
