package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"hiretrack/internal/config"
)

func TestLoadDefaultConfigUsesEnvSaltAndExpandsPaths(t *testing.T) {
	t.Setenv("HIRETRACK_ANON_SALT", "env-salt")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "hiretrack")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "hiretrack.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Anonymize.Salt != "env-salt" {
		t.Fatalf("expected salt from env, got %q", cfg.Anonymize.Salt)
	}
	if cfg.Anonymize.CutoffMonths != 12 {
		t.Fatalf("expected 12 month cutoff, got %d", cfg.Anonymize.CutoffMonths)
	}
	if !cfg.Anonymize.SkipHired {
		t.Fatal("expected skip_hired enabled by default")
	}
	if cfg.Notifications.Sink != "log" {
		t.Fatalf("expected log sink by default, got %q", cfg.Notifications.Sink)
	}
	if cfg.Dashboard.RecentlyClosedDays != 7 {
		t.Fatalf("unexpected recently closed window: %d", cfg.Dashboard.RecentlyClosedDays)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.DocumentsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	configPath := filepath.Join(tempDir, "hiretrack.toml")

	type payload struct {
		Anonymize struct {
			Salt         string `toml:"salt"`
			CutoffMonths int    `toml:"cutoff_months"`
		} `toml:"anonymize"`
		Notifications struct {
			Sink      string `toml:"sink"`
			NtfyTopic string `toml:"ntfy_topic"`
			HREmail   string `toml:"hr_email"`
		} `toml:"notifications"`
	}
	custom := payload{}
	custom.Anonymize.Salt = "file-salt"
	custom.Anonymize.CutoffMonths = 24
	custom.Notifications.Sink = "NTFY"
	custom.Notifications.NtfyTopic = "recruiting"
	custom.Notifications.HREmail = " HR@Example.com "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Anonymize.Salt != "file-salt" {
		t.Fatalf("expected salt from file, got %q", cfg.Anonymize.Salt)
	}
	if cfg.Notifications.Sink != "ntfy" {
		t.Fatalf("expected sink normalized to ntfy, got %q", cfg.Notifications.Sink)
	}
	if cfg.Notifications.HREmail != "hr@example.com" {
		t.Fatalf("expected hr email normalized, got %q", cfg.Notifications.HREmail)
	}
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := cfg.AnonymizeCutoff(now); !got.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected cutoff: %v", got)
	}
}

func TestEnvFileSuppliesSecrets(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	envPath := filepath.Join(tempDir, "secrets.env")
	if err := os.WriteFile(envPath, []byte("HIRETRACK_ANON_SALT=dotenv-salt\nHIRETRACK_NTFY_TOPIC=dotenv-topic\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	configPath := filepath.Join(tempDir, "hiretrack.toml")
	contents := "[paths]\nenv_file = \"" + filepath.ToSlash(envPath) + "\"\n[anonymize]\nsalt = \"file-salt\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Anonymize.Salt != "dotenv-salt" {
		t.Errorf("expected dotenv salt to override file, got %q", cfg.Anonymize.Salt)
	}
	if cfg.Notifications.NtfyTopic != "dotenv-topic" {
		t.Errorf("expected dotenv ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}

	t.Setenv("HIRETRACK_ANON_SALT", "process-salt")
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Anonymize.Salt != "process-salt" {
		t.Errorf("expected process env to win over dotenv, got %q", cfg.Anonymize.Salt)
	}
}

func TestCreateSampleGeneratesSalt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if strings.Contains(string(contents), "__GENERATED_SALT__") {
		t.Fatalf("sample config still carries salt placeholder: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if len(cfg.Anonymize.Salt) != 64 {
		t.Fatalf("expected 64 hex character salt, got %q", cfg.Anonymize.Salt)
	}
	if !strings.Contains(cfg.Paths.DataDir, "hiretrack") {
		t.Fatalf("expected data dir to contain hiretrack, got %q", cfg.Paths.DataDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Anonymize.Salt = "salt"
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing salt", func(c *config.Config) { c.Anonymize.Salt = "" }, "anonymize.salt"},
		{"cutoff", func(c *config.Config) { c.Anonymize.CutoffMonths = 0 }, "anonymize.cutoff_months"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.Sink = "ntfy" }, "notifications.ntfy_topic"},
		{"webhook url", func(c *config.Config) {
			c.Notifications.Sink = "webhook"
			c.Notifications.WebhookURL = "ftp://example.com"
		}, "notifications.webhook_url"},
		{"unknown sink", func(c *config.Config) { c.Notifications.Sink = "smtp" }, "notifications.sink"},
		{"hr email", func(c *config.Config) { c.Notifications.HREmail = "hr" }, "notifications.hr_email"},
		{"dispatch batch", func(c *config.Config) { c.Workflow.DispatchBatch = 0 }, "workflow.dispatch_batch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with salt should validate: %v", err)
	}
}
