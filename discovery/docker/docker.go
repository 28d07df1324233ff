// Package docker discovers directory replicas by asking the Docker Engine
// for the running containers of a compose service. Replica addresses are the
// container names, which resolve on the compose network.
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/skillsenselab/registry/discovery"
	"github.com/skillsenselab/registry/logger"
)

func init() {
	discovery.RegisterProviderFactory("docker", func(cfg discovery.Config, log *logger.Logger) (discovery.Discovery, error) {
		return NewProvider(cfg, log)
	})
}

// Provider implements discovery.Discovery using the Docker Engine SDK.
type Provider struct {
	client *client.Client
	cfg    discovery.Config
	log    *logger.Logger
}

// NewProvider creates a Provider from the given Config.
func NewProvider(cfg discovery.Config, log *logger.Logger) (*Provider, error) {
	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
	}
	if cfg.DockerHost != "" {
		opts = append(opts, client.WithHost(cfg.DockerHost))
	} else {
		opts = append(opts, client.FromEnv)
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker: create client: %w", err)
	}

	return &Provider{
		client: cli,
		cfg:    cfg,
		log:    log.WithComponent("discovery.docker"),
	}, nil
}

// Replicas lists running containers of the configured compose service and
// returns one base URL per container, in the order the engine reports them.
func (p *Provider) Replicas(ctx context.Context) ([]string, error) {
	args := filters.NewArgs(
		filters.Arg("label", "com.docker.compose.service="+p.cfg.ServiceName),
		filters.Arg("status", "running"),
	)
	if p.cfg.ComposeProject != "" {
		args.Add("label", "com.docker.compose.project="+p.cfg.ComposeProject)
	}

	containers, err := p.client.ContainerList(ctx, container.ListOptions{Filters: args})
	if err != nil {
		return nil, fmt.Errorf("docker: list containers: %w", err)
	}

	replicas := make([]string, 0, len(containers))
	for _, ctr := range containers {
		if len(ctr.Names) == 0 {
			continue
		}
		name := strings.TrimPrefix(ctr.Names[0], "/")
		replicas = append(replicas, fmt.Sprintf("http://%s:%d", name, p.cfg.ServicePort))
	}

	p.log.Debug("replicas discovered", map[string]interface{}{
		"service": p.cfg.ServiceName,
		"count":   len(replicas),
	})
	return replicas, nil
}

// Close releases the Docker client.
func (p *Provider) Close() error {
	return p.client.Close()
}

var _ discovery.Discovery = (*Provider)(nil)
