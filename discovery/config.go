package discovery

import "fmt"

// Config holds replica-discovery configuration shared by all providers.
type Config struct {
	// Provider selects the discovery backend: "docker", "consul", or "static".
	Provider string `yaml:"provider" mapstructure:"provider"`

	// ServiceName is the logical name of the replicated service to discover.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`

	// ServicePort is the port replicas listen on. Used by providers that
	// discover hosts without port information (docker).
	ServicePort int `yaml:"service_port" mapstructure:"service_port"`

	// DockerHost is the Docker Engine endpoint (empty = environment default).
	DockerHost string `yaml:"docker_host" mapstructure:"docker_host"`

	// ComposeProject is the docker-compose project replicas belong to.
	ComposeProject string `yaml:"compose_project" mapstructure:"compose_project"`

	// ConsulAddr is the Consul agent address (host:port).
	ConsulAddr string `yaml:"consul_addr" mapstructure:"consul_addr"`

	// ConsulScheme is the URI scheme for Consul ("http" or "https").
	ConsulScheme string `yaml:"consul_scheme" mapstructure:"consul_scheme"`

	// ConsulToken is the Consul ACL token for authentication.
	ConsulToken string `yaml:"consul_token" mapstructure:"consul_token"`

	// StaticReplicas lists fixed base URLs for the static provider.
	StaticReplicas []string `yaml:"static_replicas" mapstructure:"static_replicas"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "static"
	}
	if c.ServicePort == 0 {
		c.ServicePort = 4152
	}
	if c.ConsulAddr == "" {
		c.ConsulAddr = "localhost:8500"
	}
	if c.ConsulScheme == "" {
		c.ConsulScheme = "http"
	}
}

// Validate checks provider-independent requirements.
func (c *Config) Validate() error {
	if c.Provider != "static" && c.ServiceName == "" {
		return fmt.Errorf("discovery.service_name is required for provider %q", c.Provider)
	}
	if c.ServicePort < 0 || c.ServicePort > 65535 {
		return fmt.Errorf("discovery.service_port must be between 0 and 65535 (got: %d)", c.ServicePort)
	}
	return nil
}
