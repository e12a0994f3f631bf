package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envAnonSalt  = "HIRETRACK_ANON_SALT"
	envNtfyTopic = "HIRETRACK_NTFY_TOPIC"
	envWebhook   = "HIRETRACK_WEBHOOK_URL"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	secrets, err := readEnvFile(c.Paths.EnvFile)
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	c.normalizeNotifications(secrets)
	c.normalizeAnonymize(secrets)
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DocumentsDir) == "" {
		c.Paths.DocumentsDir = defaultDocumentsDir
	}
	if c.Paths.DocumentsDir, err = expandPath(c.Paths.DocumentsDir); err != nil {
		return fmt.Errorf("paths.documents_dir: %w", err)
	}
	if c.Paths.EnvFile, err = expandPath(strings.TrimSpace(c.Paths.EnvFile)); err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	return nil
}

// readEnvFile parses a dotenv file without touching the process environment.
// A missing file yields no values.
func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return values, nil
}

// lookupSecret prefers the process environment over the dotenv file.
func lookupSecret(secrets map[string]string, key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	if value, ok := secrets[key]; ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	return "", false
}

func (c *Config) normalizeNotifications(secrets map[string]string) {
	n := &c.Notifications
	n.Sink = strings.ToLower(strings.TrimSpace(n.Sink))
	if n.Sink == "" {
		n.Sink = defaultNotifySink
	}
	if value, ok := lookupSecret(secrets, envNtfyTopic); ok {
		n.NtfyTopic = value
	}
	if value, ok := lookupSecret(secrets, envWebhook); ok {
		n.WebhookURL = value
	}
	n.NtfyServer = strings.TrimRight(strings.TrimSpace(n.NtfyServer), "/")
	if n.NtfyServer == "" {
		n.NtfyServer = defaultNtfyServer
	}
	n.NtfyTopic = strings.TrimSpace(n.NtfyTopic)
	n.WebhookURL = strings.TrimSpace(n.WebhookURL)
	n.HREmail = strings.ToLower(strings.TrimSpace(n.HREmail))
	if n.RequestTimeout <= 0 {
		n.RequestTimeout = defaultNotifyRequestTimeout
	}
	if n.RatePerMinute < 0 {
		n.RatePerMinute = 0
	}
}

func (c *Config) normalizeAnonymize(secrets map[string]string) {
	if value, ok := lookupSecret(secrets, envAnonSalt); ok {
		c.Anonymize.Salt = value
	}
	c.Anonymize.Salt = strings.TrimSpace(c.Anonymize.Salt)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.DispatchBatch <= 0 {
		c.Workflow.DispatchBatch = defaultDispatchBatch
	}
	if c.Dashboard.RecentlyClosedDays <= 0 {
		c.Dashboard.RecentlyClosedDays = defaultRecentlyClosedDays
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
