package registry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/errors"
	"github.com/skillsenselab/registry/logger"
)

// monitorIdentity is the admin-equivalent authority the monitor evicts with.
var monitorIdentity = auth.Identity{Username: "health-monitor", Access: auth.AccessAdmin}

// MonitorConfig configures the background health monitor.
type MonitorConfig struct {
	// Interval is how often all directory entries are probed.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// ProbeTimeout bounds a single health probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// ApplyDefaults fills zero-value fields with sensible defaults.
func (c *MonitorConfig) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = 5 * time.Second
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 2 * time.Second
	}
}

// Monitor periodically probes every directory entry's health endpoint and
// evicts entries that fail. It runs on its own goroutine, independent of
// request handling.
type Monitor struct {
	directory *Directory
	client    *http.Client
	cfg       MonitorConfig
	log       *logger.Logger
}

// NewMonitor creates a health monitor over the given directory.
func NewMonitor(cfg MonitorConfig, directory *Directory, log *logger.Logger) *Monitor {
	cfg.ApplyDefaults()
	return &Monitor{
		directory: directory,
		client:    &http.Client{Timeout: cfg.ProbeTimeout},
		cfg:       cfg,
		log:       log.WithComponent("monitor"),
	}
}

// Run probes all entries every interval until the context is canceled.
// Individual probe or eviction failures never abort a tick.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info("health monitor started", map[string]interface{}{
		"interval":      m.cfg.Interval.String(),
		"probe_timeout": m.cfg.ProbeTimeout.String(),
	})

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("health monitor stopped")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one full probe pass over the directory.
func (m *Monitor) Tick(ctx context.Context) {
	records, err := m.directory.List(ctx)
	if err != nil {
		m.log.Error("health pass skipped: listing services failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, record := range records {
		err := m.probe(ctx, record.URL)
		if err == nil {
			continue
		}
		m.log.Warn("health probe failed, evicting service", map[string]interface{}{
			"id":    record.ID,
			"name":  record.Name,
			"url":   record.URL,
			"error": err.Error(),
		})
		m.evict(ctx, record.ID)
	}
}

// probe issues a bounded GET against {url}/health; any non-2xx status or
// transport failure marks the service unhealthy.
func (m *Monitor) probe(ctx context.Context, baseURL string) error {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	url := strings.TrimSuffix(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// evict removes the record with admin authority. Losing the race against a
// manual deregistration is fine: already-gone is success here.
func (m *Monitor) evict(ctx context.Context, id string) {
	err := m.directory.Deregister(ctx, monitorIdentity, id)
	switch {
	case err == nil:
	case errors.IsCode(err, errors.ErrCodeNotFound):
		m.log.Debug("service already removed", map[string]interface{}{"id": id})
	default:
		m.log.Error("eviction failed", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
	}
}
