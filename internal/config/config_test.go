package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"captioner/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "captioner", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "share", "captioner") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Transcription.APIEndpoint != "http://localhost:5000" {
		t.Fatalf("unexpected endpoint: %q", cfg.Transcription.APIEndpoint)
	}
	if cfg.Transcription.OutputFormat != "srt" {
		t.Fatalf("unexpected format: %q", cfg.Transcription.OutputFormat)
	}
	if cfg.TranscriptionTimeout() != 30*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.TranscriptionTimeout())
	}
	if cfg.HostCommandTimeout() != 0 {
		t.Fatalf("expected unbounded host timeout by default, got %v", cfg.HostCommandTimeout())
	}
	if cfg.Host.Transport != config.TransportSocket {
		t.Fatalf("unexpected transport: %q", cfg.Host.Transport)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.StateDir, "captioner.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadCustomConfigNormalizes(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "captioner.toml")
	payload := map[string]any{
		"paths": map[string]any{"state_dir": "~/state"},
		"transcription": map[string]any{
			"api_endpoint":    " http://gpu-box:5000/ ",
			"output_format":   "XML",
			"timeout_seconds": 90,
		},
		"host": map[string]any{
			"transport":               "Fake",
			"command_timeout_seconds": 120,
		},
		"logging": map[string]any{"format": "JSON", "level": "Debug"},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir %q", cfg.Paths.StateDir)
	}
	if cfg.Transcription.APIEndpoint != "http://gpu-box:5000" {
		t.Fatalf("expected trimmed endpoint, got %q", cfg.Transcription.APIEndpoint)
	}
	if cfg.Transcription.OutputFormat != "xml" || cfg.Host.Transport != "fake" {
		t.Fatalf("expected lowercased enums, got %q %q", cfg.Transcription.OutputFormat, cfg.Host.Transport)
	}
	if cfg.HostCommandTimeout() != 2*time.Minute {
		t.Fatalf("unexpected host timeout %v", cfg.HostCommandTimeout())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvAPIEndpoint, "https://transcribe.example.com")
	t.Setenv(config.EnvOutputFormat, "xml")
	t.Setenv(config.EnvTimeout, "5")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcription.APIEndpoint != "https://transcribe.example.com" {
		t.Fatalf("expected env endpoint, got %q", cfg.Transcription.APIEndpoint)
	}
	if cfg.Transcription.OutputFormat != "xml" || cfg.TranscriptionTimeout() != 5*time.Second {
		t.Fatalf("unexpected overrides: %+v", cfg.Transcription)
	}
}

func TestLoadEnvReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CAPTIONER_LOG_LEVEL=warn\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(config.EnvLogLevel, "")
	os.Unsetenv(config.EnvLogLevel)

	loaded, err := config.LoadEnv(dir)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if loaded != filepath.Join(dir, ".env") {
		t.Fatalf("unexpected loaded path %q", loaded)
	}
	if got := os.Getenv(config.EnvLogLevel); got != "warn" {
		t.Fatalf("expected level from .env, got %q", got)
	}

	none, err := config.LoadEnv(t.TempDir())
	if err != nil || none != "" {
		t.Fatalf("expected no file loaded, got %q %v", none, err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"endpoint", func(c *config.Config) { c.Transcription.APIEndpoint = "localhost" }, "api_endpoint"},
		{"format", func(c *config.Config) { c.Transcription.OutputFormat = "vtt" }, "output_format"},
		{"transport", func(c *config.Config) { c.Host.Transport = "carrier-pigeon" }, "host.transport"},
		{"exec", func(c *config.Config) { c.Host.Transport = config.TransportExec }, "host.command"},
		{"host timeout", func(c *config.Config) { c.Host.CommandTimeoutSeconds = -1 }, "command_timeout_seconds"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "ntfy_topic"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Transcription.OutputFormat != "srt" {
		t.Fatalf("unexpected sample format %q", cfg.Transcription.OutputFormat)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
