package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// Resolver looks up the addresses behind a host name. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Checker probes every upstream on a fixed interval and reports the results to the pool.
type Checker struct {
	pool       *Pool
	specs      []*url.URL
	resolver   Resolver
	client     *http.Client
	healthPath string
	interval   time.Duration
}

// ParseUpstreams parses a list of base URLs such as "http://api:8000".
func ParseUpstreams(raw []string) ([]*url.URL, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no upstreams configured")
	}
	out := make([]*url.URL, 0, len(raw))
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream %q: %w", r, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid upstream %q: expected http(s)://host:port", r)
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		out = append(out, u)
	}
	return out, nil
}

// NewChecker creates a Checker. resolver may be nil to use net.DefaultResolver.
func NewChecker(pool *Pool, specs []*url.URL, resolver Resolver, healthPath string, interval, timeout time.Duration) *Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Checker{
		pool:       pool,
		specs:      specs,
		resolver:   resolver,
		client:     &http.Client{Timeout: timeout},
		healthPath: healthPath,
		interval:   interval,
	}
}

// Run probes immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.CheckOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckOnce(ctx)
		}
	}
}

// CheckOnce resolves the upstream names, syncs the pool and probes every member.
func (c *Checker) CheckOnce(ctx context.Context) {
	c.pool.Sync(c.resolve(ctx))

	var wg sync.WaitGroup
	for _, key := range c.pool.Keys() {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			err := c.probe(ctx, key)
			if err != nil {
				logger.Debugf("Health probe of [%s] failed: %v", key, err)
			}
			c.pool.Report(key, err == nil)
		}(key)
	}
	wg.Wait()
}

// resolve expands every configured upstream into one target per address, so a
// service name backed by several replicas yields several upstreams. When a
// lookup fails the name is kept as is.
func (c *Checker) resolve(ctx context.Context) []*url.URL {
	var out []*url.URL
	for _, spec := range c.specs {
		host, port := spec.Hostname(), spec.Port()
		if net.ParseIP(host) != nil {
			out = append(out, spec)
			continue
		}
		addrs, err := c.resolver.LookupHost(ctx, host)
		if err != nil || len(addrs) == 0 {
			logger.Warnf("Could not resolve upstream host '%s': %v", host, err)
			out = append(out, spec)
			continue
		}
		for _, addr := range addrs {
			target := *spec
			if port != "" {
				target.Host = net.JoinHostPort(addr, port)
			} else {
				target.Host = addr
			}
			out = append(out, &target)
		}
	}
	return out
}

func (c *Checker) probe(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+c.healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
