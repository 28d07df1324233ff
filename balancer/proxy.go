// Package balancer forwards inbound requests to a fleet of replicas,
// refreshing the target list from discovery and evicting targets that fail at
// the transport level or answer with a server error.
package balancer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/skillsenselab/registry/discovery"
	"github.com/skillsenselab/registry/errors"
	"github.com/skillsenselab/registry/logger"
)

// hopByHopHeaders must not be forwarded between the client and the upstream.
// See RFC 9110 section 7.6.1.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy routes requests to the front of a TargetSet, evicting targets on
// failure and retrying until a target answers or the set is exhausted.
type Proxy struct {
	disc    discovery.Discovery
	targets *TargetSet
	client  *http.Client
	cfg     Config
	log     *logger.Logger
}

// NewProxy creates a Proxy over the given discovery provider.
func NewProxy(disc discovery.Discovery, cfg Config, log *logger.Logger) (*Proxy, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Proxy{
		disc:    disc,
		targets: NewTargetSet(),
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
		cfg:     cfg,
		log:     log.WithComponent("balancer"),
	}, nil
}

// Targets exposes the proxy's target set.
func (p *Proxy) Targets() *TargetSet {
	return p.targets
}

// Refresh rebuilds the target set from discovery and returns the new list.
func (p *Proxy) Refresh(ctx context.Context) ([]string, error) {
	replicas, err := p.disc.Replicas(ctx)
	if err != nil {
		p.log.Warn("replica discovery failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.ServiceUnavailable(p.cfg.UpstreamName).WithCause(err)
	}
	p.targets.Replace(replicas)
	return replicas, nil
}

// Route refreshes the target set, then forwards r to the front target and
// writes the upstream response to w verbatim. A transport failure or a 5xx
// answer evicts the front target and the attempt repeats against the new
// front. Attempts are capped at the refreshed target count, so a fully-down
// fleet terminates after one pass. Returns an error only when no upstream
// response was written.
func (p *Proxy) Route(w http.ResponseWriter, r *http.Request) error {
	if _, err := p.Refresh(r.Context()); err != nil {
		return err
	}

	attempts := p.targets.Len()
	if attempts == 0 {
		p.log.Warn("no targets available", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		return errors.ServiceUnavailable(p.cfg.UpstreamName)
	}

	// Buffer the body once so it can be replayed on retry.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.Validation("Failed to read request body.").WithCause(err)
	}

	for attempt := 0; attempt < attempts; attempt++ {
		target, ok := p.targets.Front()
		if !ok {
			break
		}

		resp, err := p.forward(r, target, body)
		if err != nil {
			p.log.Warn("target unreachable, evicting", map[string]interface{}{
				"target": target,
				"error":  err.Error(),
			})
			p.targets.Evict(target)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			p.log.Warn("target returned server error, evicting", map[string]interface{}{
				"target": target,
				"status": resp.StatusCode,
			})
			drain(resp)
			p.targets.Evict(target)
			continue
		}

		err = writeResponse(w, resp)
		resp.Body.Close()
		if err != nil {
			// The client went away mid-copy; nothing more to send.
			p.log.Debug("response copy interrupted", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}

	return errors.ServiceUnavailable(p.cfg.UpstreamName)
}

func (p *Proxy) forward(r *http.Request, target string, body []byte) (*http.Response, error) {
	out, err := http.NewRequestWithContext(r.Context(), r.Method, target+r.URL.RequestURI(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	copyHeaders(out.Header, r.Header)
	return p.client.Do(out)
}

// copyHeaders copies src into dst, skipping hop-by-hop headers and any header
// the Connection header names.
func copyHeaders(dst, src http.Header) {
	skip := make(map[string]bool, len(hopByHopHeaders))
	for _, h := range hopByHopHeaders {
		skip[h] = true
	}
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				skip[http.CanonicalHeaderKey(name)] = true
			}
		}
	}
	for name, values := range src {
		if skip[http.CanonicalHeaderKey(name)] {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func writeResponse(w http.ResponseWriter, resp *http.Response) error {
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, err := io.Copy(w, resp.Body)
	return err
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
