package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateHost(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranscription() error {
	if c.Transcription.APIEndpoint == "" {
		return errors.New("transcription.api_endpoint must be set")
	}
	parsed, err := url.Parse(c.Transcription.APIEndpoint)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("transcription.api_endpoint must be an http(s) URL, got %q", c.Transcription.APIEndpoint)
	}
	switch c.Transcription.OutputFormat {
	case "srt", "xml":
	default:
		return fmt.Errorf("transcription.output_format must be srt or xml, got %q", c.Transcription.OutputFormat)
	}
	if c.Transcription.TimeoutSeconds < 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateHost() error {
	switch c.Host.Transport {
	case TransportSocket:
		if c.Host.SocketPath == "" {
			return errors.New("host.socket_path must be set for the socket transport")
		}
	case TransportExec:
		if c.Host.Command == "" {
			return errors.New("host.command must be set for the exec transport")
		}
	case TransportFake:
		if c.Host.DevProjectPath == "" {
			return errors.New("host.dev_project_path must be set for the fake transport")
		}
	default:
		return fmt.Errorf("host.transport must be socket, exec, or fake, got %q", c.Host.Transport)
	}
	if c.Host.CommandTimeoutSeconds < 0 {
		return errors.New("host.command_timeout_seconds must be zero or positive")
	}
	if c.Host.MinFreeSpaceMegabytes < 0 {
		return errors.New("host.min_free_space_mb must be zero or positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" {
		parsed, err := url.Parse(c.Notifications.NtfyTopic)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic must be a full topic URL, got %q", c.Notifications.NtfyTopic)
		}
	}
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
