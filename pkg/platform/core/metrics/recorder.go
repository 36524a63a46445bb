// Package metrics defines the platform's metric recording interface, its Prometheus
// implementation and the OpenTelemetry tracer setup.
package metrics

import (
	"net/http"
	"time"
)

// Bootstrap step outcomes recorded by RecordBootstrapStep.
const (
	OutcomeCreated = "created"
	OutcomePresent = "present"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// MetricRecorder records operational metrics of the API, the bootstrapper and the gateway.
type MetricRecorder interface {
	// RecordHTTPRequest records one served request. route is the matched route pattern.
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	// RecordBootstrapStep records the outcome of one bootstrap step.
	RecordBootstrapStep(step, outcome string, duration time.Duration)
	// RecordCacheLookup counts cache hits and misses for a cache prefix.
	RecordCacheLookup(prefix string, hit bool)
	// SetUpstreamHealthy publishes the health state of a gateway upstream.
	SetUpstreamHealthy(upstream string, healthy bool)
	// RecordUpstreamRequest counts a request proxied to an upstream.
	RecordUpstreamRequest(upstream string, status int)
	// Handler exposes the collected metrics for scraping.
	Handler() http.Handler
}
