package gateway

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newTestPool(t *testing.T, raw ...string) *Pool {
	t.Helper()
	p := NewPool(3, metrics.NewPrometheusRecorder())
	var targets []*url.URL
	for _, r := range raw {
		targets = append(targets, mustURL(t, r))
	}
	p.Sync(targets)
	return p
}

func TestNewUpstreamGetsNoTrafficBeforeFirstProbe(t *testing.T) {
	p := newTestPool(t, "http://10.0.0.1:8000", "http://10.0.0.2:8000")

	_, _, err := p.Acquire()
	assert.ErrorIs(t, err, exception.ErrNoHealthyUpstream)
	assert.Empty(t, p.Healthy())

	assert.True(t, p.Report("http://10.0.0.2:8000", true))
	u, release, err := p.Acquire()
	require.NoError(t, err)
	defer release()
	assert.Equal(t, "http://10.0.0.2:8000", u.Key())
}

func TestUpstreamGoesDownAfterExactlyThreeFailures(t *testing.T) {
	const key = "http://10.0.0.1:8000"
	p := newTestPool(t, key)
	p.Report(key, true)

	assert.False(t, p.Report(key, false))
	assert.False(t, p.Report(key, false))
	assert.Equal(t, []string{key}, p.Healthy())

	assert.True(t, p.Report(key, false))
	assert.Empty(t, p.Healthy())

	assert.True(t, p.Report(key, true), "one success brings it back")
	assert.Equal(t, []string{key}, p.Healthy())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	const key = "http://10.0.0.1:8000"
	p := newTestPool(t, key)
	p.Report(key, true)

	p.Report(key, false)
	p.Report(key, false)
	p.Report(key, true)
	p.Report(key, false)
	p.Report(key, false)
	assert.Equal(t, []string{key}, p.Healthy())
}

func TestAcquirePrefersFewestPending(t *testing.T) {
	p := newTestPool(t, "http://10.0.0.1:8000", "http://10.0.0.2:8000")
	for _, k := range p.Keys() {
		p.Report(k, true)
	}

	first, releaseFirst, err := p.Acquire()
	require.NoError(t, err)
	second, releaseSecond, err := p.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, first.Key(), second.Key())

	third, releaseThird, err := p.Acquire()
	require.NoError(t, err)
	releaseFirst()
	releaseSecond()
	releaseThird()

	fourth, releaseFourth, err := p.Acquire()
	require.NoError(t, err)
	releaseFourth()
	assert.NotEqual(t, third.Key(), fourth.Key(), "idle upstreams alternate")
}

func TestAcquireSkipsUnhealthy(t *testing.T) {
	p := newTestPool(t, "http://10.0.0.1:8000", "http://10.0.0.2:8000", "http://10.0.0.3:8000")
	p.Report("http://10.0.0.3:8000", true)

	for i := 0; i < 5; i++ {
		u, release, err := p.Acquire()
		require.NoError(t, err)
		assert.Equal(t, "http://10.0.0.3:8000", u.Key())
		release()
	}
	assert.Equal(t, uint64(5), p.Served()["http://10.0.0.3:8000"])
}

func TestSyncKeepsStateAndDropsVanished(t *testing.T) {
	p := newTestPool(t, "http://10.0.0.1:8000", "http://10.0.0.2:8000")
	p.Report("http://10.0.0.1:8000", true)

	p.Sync([]*url.URL{mustURL(t, "http://10.0.0.1:8000"), mustURL(t, "http://10.0.0.3:8000")})
	assert.Equal(t, []string{"http://10.0.0.1:8000", "http://10.0.0.3:8000"}, p.Keys())
	assert.Equal(t, []string{"http://10.0.0.1:8000"}, p.Healthy())
}
