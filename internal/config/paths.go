package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the SQLite file holding run history and persisted settings.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "captioner.db")
}

// LogFilePath is the JSON log file written alongside console output, or ""
// when no log directory is configured.
func (c *Config) LogFilePath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "captioner.log")
}

// LockPath is the lock file guarding pipeline runs across processes.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "captioner.lock")
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c *Config) TranscriptionTimeout() time.Duration {
	return seconds(c.Transcription.TimeoutSeconds)
}

func (c *Config) NotificationTimeout() time.Duration {
	return seconds(c.Notifications.RequestTimeoutSeconds)
}

// HostCommandTimeout bounds each host call; zero means wait indefinitely.
func (c *Config) HostCommandTimeout() time.Duration {
	return seconds(max(c.Host.CommandTimeoutSeconds, 0))
}
