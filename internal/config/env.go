package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment overrides applied after the TOML file is decoded.
const (
	EnvAPIEndpoint  = "CAPTIONER_API_ENDPOINT"
	EnvOutputFormat = "CAPTIONER_OUTPUT_FORMAT"
	EnvTimeout      = "CAPTIONER_TIMEOUT_SECONDS"
	EnvHostSocket   = "CAPTIONER_HOST_SOCKET"
	EnvLogLevel     = "CAPTIONER_LOG_LEVEL"
)

// LoadEnv loads variables from the first .env file found in the given
// directories (the working directory when none are given). Variables that are
// already set in the process environment win. It returns the loaded path, or
// "" when no file exists.
func LoadEnv(dirs ...string) (string, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, dir := range dirs {
		for _, name := range []string{".env", ".env.local"} {
			candidate := strings.TrimRight(dir, "/") + "/" + name
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if err := godotenv.Load(candidate); err != nil {
				return "", fmt.Errorf("load %s: %w", candidate, err)
			}
			return candidate, nil
		}
	}
	return "", nil
}

// EnvSet reports whether the named environment override holds a non-blank value.
func EnvSet(name string) bool {
	return strings.TrimSpace(os.Getenv(name)) != ""
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIEndpoint)); v != "" {
		c.Transcription.APIEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputFormat)); v != "" {
		c.Transcription.OutputFormat = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			c.Transcription.TimeoutSeconds = seconds
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHostSocket)); v != "" {
		c.Host.SocketPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
}
