// Package consul discovers directory replicas through a Consul agent,
// returning only instances whose health checks pass.
package consul

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/skillsenselab/registry/discovery"
	"github.com/skillsenselab/registry/logger"
)

func init() {
	discovery.RegisterProviderFactory("consul", func(cfg discovery.Config, log *logger.Logger) (discovery.Discovery, error) {
		return NewProvider(cfg, log)
	})
}

// Provider implements discovery.Discovery using HashiCorp Consul.
type Provider struct {
	client *api.Client
	cfg    discovery.Config
	log    *logger.Logger
}

// NewProvider creates a Provider from the given Config.
func NewProvider(cfg discovery.Config, log *logger.Logger) (*Provider, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.ConsulAddr
	apiCfg.Scheme = cfg.ConsulScheme
	apiCfg.Token = cfg.ConsulToken

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul: create client: %w", err)
	}

	return &Provider{
		client: client,
		cfg:    cfg,
		log:    log.WithComponent("discovery.consul"),
	}, nil
}

// Replicas queries Consul for passing instances of the configured service.
func (p *Provider) Replicas(ctx context.Context) ([]string, error) {
	entries, _, err := p.client.Health().Service(p.cfg.ServiceName, "", true, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul: discover %q: %w", p.cfg.ServiceName, err)
	}

	replicas := make([]string, 0, len(entries))
	for _, e := range entries {
		addr := e.Service.Address
		if addr == "" {
			addr = e.Node.Address
		}
		port := e.Service.Port
		if port == 0 {
			port = p.cfg.ServicePort
		}
		replicas = append(replicas, fmt.Sprintf("http://%s:%d", addr, port))
	}

	p.log.Debug("replicas discovered", map[string]interface{}{
		"service": p.cfg.ServiceName,
		"count":   len(replicas),
	})
	return replicas, nil
}

// Close is a no-op for the Consul provider.
func (p *Provider) Close() error {
	return nil
}

var _ discovery.Discovery = (*Provider)(nil)
