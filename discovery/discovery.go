// Package discovery defines the pluggable collaborator the load balancer
// asks for the currently live directory-replica addresses. Providers live in
// subpackages and register themselves via init, so a binary selects one by
// importing it and naming it in config.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/skillsenselab/registry/logger"
)

// Common discovery errors.
var (
	ErrNoReplicas      = errors.New("discovery: no running replicas found")
	ErrUnknownProvider = errors.New("discovery: unknown provider")
)

// Discovery reports the currently live replica base URLs, in discovery order.
type Discovery interface {
	// Replicas returns base URLs (scheme://host:port) of running replicas.
	Replicas(ctx context.Context) ([]string, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Factory builds a provider from the shared discovery Config.
type Factory func(cfg Config, log *logger.Logger) (Discovery, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{}
)

// RegisterProviderFactory makes a provider available under the given name.
// Called from provider package init functions.
func RegisterProviderFactory(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = f
}

// New builds the provider named in cfg.Provider.
func New(cfg Config, log *logger.Logger) (Discovery, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoryMu.RLock()
	f, ok := factories[cfg.Provider]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProvider, cfg.Provider, knownProviders())
	}
	return f(cfg, log)
}

func knownProviders() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
