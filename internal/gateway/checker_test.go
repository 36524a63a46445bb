package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/pkg/platform/core/metrics"
)

type staticResolver map[string][]string

func (r staticResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, ok := r[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return addrs, nil
}

// flakyBackend answers /health with 200 while healthy is set.
func flakyBackend(t *testing.T, healthy *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" && healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseUpstreams(t *testing.T) {
	specs, err := ParseUpstreams([]string{"http://api:8000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://api:8000", specs[0].String())

	_, err = ParseUpstreams(nil)
	assert.Error(t, err)
	_, err = ParseUpstreams([]string{"api:8000"})
	assert.Error(t, err)
}

func TestCheckerMarksUpstreamsByProbe(t *testing.T) {
	var upHealthy, downHealthy atomic.Bool
	upHealthy.Store(true)
	up := flakyBackend(t, &upHealthy)
	down := flakyBackend(t, &downHealthy)

	specs, err := ParseUpstreams([]string{up.URL, down.URL})
	require.NoError(t, err)
	pool := NewPool(3, metrics.NewPrometheusRecorder())
	checker := NewChecker(pool, specs, staticResolver{}, "/health", time.Second, time.Second)

	checker.CheckOnce(context.Background())
	assert.Equal(t, []string{up.URL}, pool.Healthy())
}

func TestCheckerTakesUpstreamDownAfterThreeRounds(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	backend := flakyBackend(t, &healthy)

	specs, err := ParseUpstreams([]string{backend.URL})
	require.NoError(t, err)
	pool := NewPool(3, metrics.NewPrometheusRecorder())
	checker := NewChecker(pool, specs, staticResolver{}, "/health", time.Second, time.Second)

	checker.CheckOnce(context.Background())
	require.Len(t, pool.Healthy(), 1)

	healthy.Store(false)
	checker.CheckOnce(context.Background())
	checker.CheckOnce(context.Background())
	assert.Len(t, pool.Healthy(), 1)
	checker.CheckOnce(context.Background())
	assert.Empty(t, pool.Healthy())

	healthy.Store(true)
	checker.CheckOnce(context.Background())
	assert.Len(t, pool.Healthy(), 1)
}

func TestCheckerResolvesServiceNameToReplicas(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	backend := flakyBackend(t, &healthy)
	_, port, err := net.SplitHostPort(mustURL(t, backend.URL).Host)
	require.NoError(t, err)

	specs, err := ParseUpstreams([]string{"http://api:" + port})
	require.NoError(t, err)
	pool := NewPool(3, metrics.NewPrometheusRecorder())
	resolver := staticResolver{"api": {"127.0.0.1", "127.0.0.2"}}
	checker := NewChecker(pool, specs, resolver, "/health", time.Second, 500*time.Millisecond)

	targets := checker.resolve(context.Background())
	require.Len(t, targets, 2)
	assert.Equal(t, "http://127.0.0.1:"+port, targets[0].String())
	assert.Equal(t, "http://127.0.0.2:"+port, targets[1].String())

	checker.CheckOnce(context.Background())
	assert.Contains(t, pool.Healthy(), "http://127.0.0.1:"+port)
}

func TestCheckerKeepsNameWhenLookupFails(t *testing.T) {
	specs := []*url.URL{mustURL(t, "http://api:8000")}
	checker := NewChecker(NewPool(3, metrics.NewPrometheusRecorder()), specs, staticResolver{}, "/health", time.Second, time.Second)

	targets := checker.resolve(context.Background())
	require.Len(t, targets, 1)
	assert.Equal(t, "http://api:8000", targets[0].String())
}
