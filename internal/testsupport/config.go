package testsupport

import (
	"path/filepath"
	"testing"

	"captioner/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The host transport defaults to the in-process fake.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Host.Transport = config.TransportFake
	cfgVal.Host.SocketPath = filepath.Join(base, "host.sock")
	cfgVal.Host.DevProjectPath = filepath.Join(base, "project", "Demo Project.prproj")
	cfgVal.Host.MinFreeSpaceMegabytes = 0
	cfgVal.DevServer.Addr = "127.0.0.1:0"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithEndpoint sets the transcription endpoint.
func WithEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.APIEndpoint = url
	}
}

// WithOutputFormat sets the default subtitle format.
func WithOutputFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.OutputFormat = format
	}
}

// WithSocketTransport switches the host transport to the unix socket.
func WithSocketTransport() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Host.Transport = config.TransportSocket
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
