package bridge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"captioner/internal/logging"
	"captioner/internal/services"
)

// errorPrefix marks a failed reply on the legacy host channel.
const errorPrefix = "Error:"

// Evaluator executes a script inside the host and returns its raw reply.
type Evaluator interface {
	Eval(ctx context.Context, script string) (string, error)
}

// EvalFunc adapts a function to the Evaluator interface.
type EvalFunc func(ctx context.Context, script string) (string, error)

// Eval calls f.
func (f EvalFunc) Eval(ctx context.Context, script string) (string, error) {
	return f(ctx, script)
}

// HostError is a failure reported by the host through the "Error:" prefix.
type HostError struct {
	Message string
}

func (e *HostError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match services.ErrHostBridge.
func (e *HostError) Unwrap() error {
	return services.ErrHostBridge
}

// Bridge sends commands to the host through an Evaluator.
type Bridge struct {
	eval   Evaluator
	logger *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New constructs a Bridge over the given transport.
func New(eval Evaluator, opts ...Option) *Bridge {
	b := &Bridge{eval: eval}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "bridge")
	return b
}

// Execute runs command in the host and returns the raw reply. A reply starting
// with "Error:" yields a *HostError carrying the rest of the reply.
func (b *Bridge) Execute(ctx context.Context, command string) (string, error) {
	if b == nil || b.eval == nil {
		return "", services.Wrap(services.ErrHostBridge, "bridge", "execute", "no host transport configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrHostBridge, "bridge", "execute", "context ended before send", err)
	}

	logger := logging.WithContext(ctx, b.logger)
	start := time.Now()
	reply, err := b.eval.Eval(ctx, command)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("host command failed", logging.Duration("elapsed", elapsed), logging.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "bridge", "execute", "host did not reply", err)
		}
		if errors.Is(err, services.ErrHostBridge) {
			return "", err
		}
		return "", services.Wrap(services.ErrHostBridge, "bridge", "execute", "transport failure", err)
	}

	payload, err := decodeReply(reply)
	logger.Debug("host command completed",
		logging.Duration("elapsed", elapsed),
		logging.Int("reply_bytes", len(reply)),
		logging.Bool("host_error", err != nil))
	return payload, err
}

// decodeReply isolates the legacy string-sentinel convention.
func decodeReply(reply string) (string, error) {
	if rest, ok := strings.CutPrefix(reply, errorPrefix); ok {
		msg := strings.TrimSpace(rest)
		if msg == "" {
			msg = "host reported an unspecified error"
		}
		return "", &HostError{Message: msg}
	}
	return reply, nil
}
