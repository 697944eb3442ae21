package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"captioner/internal/bridge"
	"captioner/internal/config"
	"captioner/internal/history"
	"captioner/internal/host"
	"captioner/internal/hostsim"
	"captioner/internal/logging"
	"captioner/internal/services"
	"captioner/internal/transcription"
)

const logStreamCapacity = 256

type globalFlags struct {
	config     string
	dev        bool
	hostSocket string
	json       bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	hub        *logging.StreamHub
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags, hub: logging.NewStreamHub(logStreamCapacity)}
}

// ensureConfig loads the configuration once: .env, then the TOML file, then
// persisted settings, then environment overrides and command-line flags.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if _, err := config.LoadEnv(); err != nil {
			c.configErr = err
			return
		}
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if socket := strings.TrimSpace(c.flags.hostSocket); socket != "" {
			expanded, err := config.ExpandPath(socket)
			if err != nil {
				c.configErr = fmt.Errorf("resolve host socket: %w", err)
				return
			}
			cfg.Host.Transport = config.TransportSocket
			cfg.Host.SocketPath = expanded
		}
		if c.flags.dev {
			cfg.Host.Transport = config.TransportFake
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if err := applyPersistedSettings(cfg); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func applyPersistedSettings(cfg *config.Config) error {
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	settings, ok, err := store.LoadSettings(context.Background())
	if err != nil {
		return err
	}
	if ok {
		settings.Apply(cfg)
	}
	return nil
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) loggerValue() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(c.configValue(), c.hub)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.flags.json
}

// requestContext tags ctx with a fresh request ID for log correlation.
func requestContext(cmd *cobra.Command) context.Context {
	return services.WithRequestID(cmd.Context(), uuid.NewString())
}

// newFacade builds the host facade for the configured transport.
func (c *commandContext) newFacade(logger *slog.Logger) (*host.Facade, error) {
	cfg := c.configValue()
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "host", "configuration not loaded", nil)
	}
	var eval bridge.Evaluator
	switch cfg.Host.Transport {
	case config.TransportFake:
		eval = hostsim.New(cfg.Host.DevProjectPath, hostsim.WithLogger(logger))
	case config.TransportSocket:
		eval = bridge.NewSocketEvaluator(cfg.Host.SocketPath)
	case config.TransportExec:
		eval = bridge.NewExecEvaluator(cfg.Host.Command, cfg.Host.Args...)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "cli", "host", fmt.Sprintf("unknown host transport %q", cfg.Host.Transport), nil)
	}
	return host.New(bridge.New(eval, bridge.WithLogger(logger)), logger), nil
}

func (c *commandContext) newClient(logger *slog.Logger) *transcription.Client {
	cfg := c.configValue()
	return transcription.New(cfg.Transcription.APIEndpoint,
		transcription.WithTimeout(cfg.TranscriptionTimeout()),
		transcription.WithLogger(logger))
}

func (c *commandContext) withStore(fn func(*history.Store) error) error {
	store, err := history.Open(c.configValue())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// withFacade runs fn against the configured host with a request-scoped context.
func (c *commandContext) withFacade(cmd *cobra.Command, fn func(context.Context, *host.Facade) error) error {
	logger, err := c.loggerValue()
	if err != nil {
		return err
	}
	facade, err := c.newFacade(logger)
	if err != nil {
		return err
	}
	reqCtx := requestContext(cmd)
	if timeout := c.configValue().HostCommandTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, timeout)
		defer cancel()
	}
	return fn(reqCtx, facade)
}
