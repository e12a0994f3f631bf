package config

import (
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const saltPlaceholder = "__GENERATED_SALT__"

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	DocumentsDir string `toml:"documents_dir"`
	EnvFile      string `toml:"env_file"`
}

// Notifications controls how notification events leave the outbox.
type Notifications struct {
	// Sink selects the delivery backend: ntfy, webhook, log, or none.
	Sink           string `toml:"sink"`
	NtfyServer     string `toml:"ntfy_server"`
	NtfyTopic      string `toml:"ntfy_topic"`
	WebhookURL     string `toml:"webhook_url"`
	RequestTimeout int    `toml:"request_timeout"`
	// HREmail is copied on every transition notification when set.
	HREmail       string `toml:"hr_email"`
	RatePerMinute int    `toml:"rate_per_minute"`
}

// Anonymize contains the retention policy for candidate data.
type Anonymize struct {
	Salt         string `toml:"salt"`
	CutoffMonths int    `toml:"cutoff_months"`
	SkipHired    bool   `toml:"skip_hired"`
}

// Workflow contains daemon timing and outbox delivery settings.
type Workflow struct {
	SweepInterval    int `toml:"sweep_interval"`
	DispatchInterval int `toml:"dispatch_interval"`
	DispatchBatch    int `toml:"dispatch_batch"`
	MaxAttempts      int `toml:"max_attempts"`
}

// Dashboard contains listing rules used by the CLI.
type Dashboard struct {
	RecentlyClosedDays int `toml:"recently_closed_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for hiretrack.
//
// Configuration sections by subsystem:
//   - Paths: database, log, and document directories
//   - Notifications: outbox delivery sink and recipients copied on every event
//   - Anonymize: salt and retention cutoff for candidate anonymization
//   - Workflow: daemon sweep and dispatch intervals
//   - Dashboard: listing windows
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Notifications Notifications `toml:"notifications"`
	Anonymize     Anonymize     `toml:"anonymize"`
	Workflow      Workflow      `toml:"workflow"`
	Dashboard     Dashboard     `toml:"dashboard"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hiretrack/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hiretrack.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon and CLI operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.DocumentsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, defaultDatabaseName)
}

// LockPath returns the daemon single-instance lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "hiretrackd.lock")
}

// PIDPath returns where the running daemon records its process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "hiretrackd.pid")
}

// AnonymizeCutoff returns the end-date cutoff for anonymization relative to now.
func (c *Config) AnonymizeCutoff(now time.Time) time.Time {
	return now.AddDate(0, -c.Anonymize.CutoffMonths, 0)
}

// NotificationTimeout returns the HTTP timeout for notification sinks.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// SweepInterval returns the daemon sweep period.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Workflow.SweepInterval) * time.Second
}

// DispatchInterval returns the daemon outbox polling period.
func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.Workflow.DispatchInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// GenerateSalt returns a random hex salt suitable for anonymize.salt.
func GenerateSalt() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateSample writes a sample configuration file to the specified location
// with a freshly generated anonymization salt.
func CreateSample(path string) error {
	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	sample := strings.Replace(sampleConfig, saltPlaceholder, salt, 1)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
