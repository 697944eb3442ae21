package preflight

import (
	"context"

	"captioner/internal/config"
	"captioner/internal/transcription"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// HealthChecker is satisfied by *transcription.Client.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (transcription.HealthInfo, error)
}

// RunAll executes the checks that apply to cfg. The transcription check is
// skipped when checker is nil.
func RunAll(ctx context.Context, cfg *config.Config, checker HealthChecker) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckFreeSpace("State directory space", cfg.Paths.StateDir, cfg.Host.MinFreeSpaceMegabytes))

	switch cfg.Host.Transport {
	case config.TransportSocket:
		results = append(results, CheckHostSocket(ctx, cfg.Host.SocketPath))
	case config.TransportExec:
		results = append(results, CheckHostCommand(cfg.Host.Command))
	}
	if checker != nil {
		results = append(results, CheckTranscription(ctx, checker))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
