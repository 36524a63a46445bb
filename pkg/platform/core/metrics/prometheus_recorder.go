package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of MetricRecorder backed by its own registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	bootstrapStepTotal    *prometheus.CounterVec
	bootstrapStepDuration *prometheus.HistogramVec

	cacheLookupsTotal *prometheus.CounterVec

	upstreamHealthy       *prometheus.GaugeVec
	upstreamRequestsTotal *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder with Go runtime and process collectors registered.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "climanegocios_http_requests_total",
			Help: "Total HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "climanegocios_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		bootstrapStepTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "climanegocios_bootstrap_steps_total",
			Help: "Bootstrap step executions by step and outcome.",
		}, []string{"step", "outcome"}),
		bootstrapStepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "climanegocios_bootstrap_step_duration_seconds",
			Help:    "Duration of bootstrap steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		cacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "climanegocios_cache_lookups_total",
			Help: "Cache lookups by key prefix and result.",
		}, []string{"prefix", "result"}),
		upstreamHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "climanegocios_gateway_upstream_healthy",
			Help: "1 when the upstream passed its last health evaluation, 0 otherwise.",
		}, []string{"upstream"}),
		upstreamRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "climanegocios_gateway_upstream_requests_total",
			Help: "Requests proxied per upstream and status code.",
		}, []string{"upstream", "status"}),
	}

	registry.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.bootstrapStepTotal,
		r.bootstrapStepDuration,
		r.cacheLookupsTotal,
		r.upstreamHealthy,
		r.upstreamRequestsTotal,
	)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordBootstrapStep(step, outcome string, duration time.Duration) {
	r.bootstrapStepTotal.WithLabelValues(step, outcome).Inc()
	r.bootstrapStepDuration.WithLabelValues(step).Observe(duration.Seconds())
	logger.Debugf("Metrics: bootstrap step '%s' %s in %s.", step, outcome, duration)
}

func (r *PrometheusRecorder) RecordCacheLookup(prefix string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookupsTotal.WithLabelValues(prefix, result).Inc()
}

func (r *PrometheusRecorder) SetUpstreamHealthy(upstream string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	r.upstreamHealthy.WithLabelValues(upstream).Set(v)
}

func (r *PrometheusRecorder) RecordUpstreamRequest(upstream string, status int) {
	r.upstreamRequestsTotal.WithLabelValues(upstream, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var _ MetricRecorder = (*PrometheusRecorder)(nil)
