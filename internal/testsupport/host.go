package testsupport

import (
	"testing"

	"captioner/internal/bridge"
	"captioner/internal/config"
	"captioner/internal/host"
	"captioner/internal/hostsim"
)

// NewFakeHost returns a simulated host with its project at the config's dev
// project path, plus a facade wired to it through a bridge.
func NewFakeHost(t testing.TB, cfg *config.Config, opts ...hostsim.Option) (*hostsim.Host, *host.Facade) {
	t.Helper()

	sim := hostsim.New(cfg.Host.DevProjectPath, opts...)
	return sim, host.New(bridge.New(sim), nil)
}
