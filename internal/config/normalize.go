package config

import (
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = ExpandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	if c.Host.SocketPath, err = ExpandPath(strings.TrimSpace(c.Host.SocketPath)); err != nil {
		return err
	}
	if c.Host.DevProjectPath, err = ExpandPath(strings.TrimSpace(c.Host.DevProjectPath)); err != nil {
		return err
	}

	c.Transcription.APIEndpoint = strings.TrimRight(strings.TrimSpace(c.Transcription.APIEndpoint), "/")
	c.Transcription.OutputFormat = strings.ToLower(strings.TrimSpace(c.Transcription.OutputFormat))
	if c.Transcription.TimeoutSeconds == 0 {
		c.Transcription.TimeoutSeconds = defaultTimeoutSeconds
	}

	c.Host.Transport = strings.ToLower(strings.TrimSpace(c.Host.Transport))
	if c.Host.Transport == "" {
		c.Host.Transport = defaultHostTransport
	}
	c.Host.Command = strings.TrimSpace(c.Host.Command)

	c.DevServer.Addr = strings.TrimSpace(c.DevServer.Addr)
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = defaultDevServerAddr
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
