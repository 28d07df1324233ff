// Package static serves a fixed replica list from configuration. Useful for
// local development and tests.
package static

import (
	"context"

	"github.com/skillsenselab/registry/discovery"
	"github.com/skillsenselab/registry/logger"
)

func init() {
	discovery.RegisterProviderFactory("static", func(cfg discovery.Config, _ *logger.Logger) (discovery.Discovery, error) {
		return NewProvider(cfg.StaticReplicas), nil
	})
}

// Provider implements discovery.Discovery over a fixed list of base URLs.
type Provider struct {
	replicas []string
}

// NewProvider creates a Provider serving the given base URLs.
func NewProvider(replicas []string) *Provider {
	return &Provider{replicas: replicas}
}

// Replicas returns a copy of the configured list, preserving order.
func (p *Provider) Replicas(_ context.Context) ([]string, error) {
	out := make([]string, len(p.replicas))
	copy(out, p.replicas)
	return out, nil
}

// Close is a no-op for the static provider.
func (p *Provider) Close() error {
	return nil
}

var _ discovery.Discovery = (*Provider)(nil)
