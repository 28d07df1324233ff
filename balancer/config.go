package balancer

import (
	"fmt"
	"time"
)

// Config holds load-balancer forwarding configuration.
type Config struct {
	// UpstreamName is the logical name of the fleet being balanced, used in
	// error messages and logs.
	UpstreamName string `yaml:"upstream_name" mapstructure:"upstream_name"`

	// UpstreamTimeout bounds a single forwarding attempt.
	UpstreamTimeout time.Duration `yaml:"upstream_timeout" mapstructure:"upstream_timeout"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.UpstreamName == "" {
		c.UpstreamName = "registry service"
	}
	if c.UpstreamTimeout == 0 {
		c.UpstreamTimeout = 10 * time.Second
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("balancer.upstream_timeout must not be negative (got: %s)", c.UpstreamTimeout)
	}
	return nil
}
