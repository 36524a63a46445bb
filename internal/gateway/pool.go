// Package gateway is the production entry point: a reverse proxy that spreads
// requests over the API replicas which passed their health probe.
package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"sync"

	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// Upstream is one API replica.
type Upstream struct {
	target   *url.URL
	proxy    *httputil.ReverseProxy
	healthy  bool
	failures int
	pending  int
	served   uint64
}

// Key is the base URL of the upstream.
func (u *Upstream) Key() string { return u.target.String() }

// Pool tracks upstream health and in-flight requests. New upstreams start
// unhealthy and get traffic only after a passing probe.
type Pool struct {
	mu        sync.Mutex
	upstreams map[string]*Upstream
	order     []string
	counter   int
	threshold int
	recorder  metrics.MetricRecorder
	newProxy  func(target *url.URL) *httputil.ReverseProxy
}

// NewPool creates an empty pool. threshold is the number of consecutive failed
// probes that take a healthy upstream out of rotation.
func NewPool(threshold int, recorder metrics.MetricRecorder) *Pool {
	if threshold < 1 {
		threshold = 1
	}
	return &Pool{
		upstreams: make(map[string]*Upstream),
		threshold: threshold,
		recorder:  recorder,
		newProxy:  newReverseProxy,
	}
}

// Sync makes the pool's membership equal to targets. Existing upstreams keep their state.
func (p *Pool) Sync(targets []*url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		key := t.String()
		seen[key] = true
		if _, ok := p.upstreams[key]; ok {
			continue
		}
		p.upstreams[key] = &Upstream{target: t, proxy: p.newProxy(t)}
		p.recorder.SetUpstreamHealthy(key, false)
		logger.Infof("Upstream [%s] added, waiting for first health probe.", key)
	}
	for key := range p.upstreams {
		if !seen[key] {
			delete(p.upstreams, key)
			p.recorder.SetUpstreamHealthy(key, false)
			logger.Infof("Upstream [%s] removed.", key)
		}
	}

	p.order = p.order[:0]
	for key := range p.upstreams {
		p.order = append(p.order, key)
	}
	sort.Strings(p.order)
}

// Report records the result of one probe. It returns true when the health state changed.
func (p *Pool) Report(key string, ok bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, found := p.upstreams[key]
	if !found {
		return false
	}
	if ok {
		u.failures = 0
		if u.healthy {
			return false
		}
		u.healthy = true
		p.recorder.SetUpstreamHealthy(key, true)
		logger.Infof("Upstream [%s] UP", key)
		return true
	}

	u.failures++
	if !u.healthy || u.failures < p.threshold {
		return false
	}
	u.healthy = false
	p.recorder.SetUpstreamHealthy(key, false)
	logger.Warnf("Upstream [%s] DOWN after %d consecutive failed probes", key, u.failures)
	return true
}

// Acquire picks a healthy upstream: scanning starts at a rotating offset and
// the one with the fewest in-flight requests wins. release must be called when
// the request is done. It fails with exception.ErrNoHealthyUpstream when no
// upstream is in rotation.
func (p *Pool) Acquire() (u *Upstream, release func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.order)
	if n == 0 {
		return nil, nil, exception.ErrNoHealthyUpstream
	}
	start := p.counter % n
	p.counter++

	var best *Upstream
	for i := 0; i < n; i++ {
		candidate := p.upstreams[p.order[(start+i)%n]]
		if !candidate.healthy {
			continue
		}
		if best == nil || candidate.pending < best.pending {
			best = candidate
		}
	}
	if best == nil {
		return nil, nil, exception.ErrNoHealthyUpstream
	}
	best.pending++
	best.served++
	return best, func() {
		p.mu.Lock()
		best.pending--
		p.mu.Unlock()
	}, nil
}

// Healthy lists the upstreams currently in rotation.
func (p *Pool) Healthy() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []string
	for _, key := range p.order {
		if p.upstreams[key].healthy {
			out = append(out, key)
		}
	}
	return out
}

// Keys lists every known upstream.
func (p *Pool) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.order...)
}

// Served returns how many requests each upstream received.
func (p *Pool) Served() map[string]uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]uint64, len(p.upstreams))
	for key, u := range p.upstreams {
		out[key] = u.served
	}
	return out
}

func newReverseProxy(target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warnf("Proxying %s %s to %s failed: %v", r.Method, r.URL.Path, target, err)
			writeText(w, http.StatusBadGateway, "bad gateway")
		},
	}
}
