package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnonymize(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnonymize() error {
	if c.Anonymize.Salt == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/hiretrack/config.toml"
		}
		return fmt.Errorf("anonymize.salt is required. Set %s or edit %s (create with 'hiretrack config init')", envAnonSalt, defaultPath)
	}
	if c.Anonymize.CutoffMonths <= 0 {
		return errors.New("anonymize.cutoff_months must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	switch n.Sink {
	case "none", "log":
	case "ntfy":
		if n.NtfyTopic == "" {
			return errors.New("notifications.ntfy_topic must be set when notifications.sink is ntfy")
		}
		if err := validateURL("notifications.ntfy_server", n.NtfyServer); err != nil {
			return err
		}
	case "webhook":
		if n.WebhookURL == "" {
			return errors.New("notifications.webhook_url must be set when notifications.sink is webhook")
		}
		if err := validateURL("notifications.webhook_url", n.WebhookURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("notifications.sink must be one of ntfy, webhook, log, none (got %q)", n.Sink)
	}
	if n.HREmail != "" && !strings.Contains(n.HREmail, "@") {
		return fmt.Errorf("notifications.hr_email %q is not an email address", n.HREmail)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.sweep_interval":       c.Workflow.SweepInterval,
		"workflow.dispatch_interval":    c.Workflow.DispatchInterval,
		"workflow.dispatch_batch":       c.Workflow.DispatchBatch,
		"workflow.max_attempts":         c.Workflow.MaxAttempts,
	})
}

func validateURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
