package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// RequestIDHeader carries the request id to the upstream.
const RequestIDHeader = "X-Request-ID"

// HealthPath is the gateway's own health endpoint.
const HealthPath = "/gateway/health"

// Gateway routes its own endpoints and proxies everything else.
type Gateway struct {
	pool     *Pool
	recorder metrics.MetricRecorder
	router   chi.Router
}

// HealthResponse is the body of the gateway health endpoint.
type HealthResponse struct {
	Status    string            `json:"status"`
	Healthy   []string          `json:"healthy_upstreams"`
	Upstreams int               `json:"upstreams"`
	Served    map[string]uint64 `json:"served"`
}

// New creates a Gateway over pool.
func New(pool *Pool, recorder metrics.MetricRecorder) *Gateway {
	g := &Gateway{pool: pool, recorder: recorder}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Get(HealthPath, g.health)
	r.Method(http.MethodGet, "/metrics", recorder.Handler())
	r.Handle("/*", http.HandlerFunc(g.proxy))
	g.router = r
	return g
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

func (g *Gateway) health(w http.ResponseWriter, r *http.Request) {
	healthy := g.pool.Healthy()
	body := HealthResponse{
		Status:    "healthy",
		Healthy:   healthy,
		Upstreams: len(g.pool.Keys()),
		Served:    g.pool.Served(),
	}
	if body.Healthy == nil {
		body.Healthy = []string{}
	}
	status := http.StatusOK
	if len(healthy) == 0 {
		body.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warnf("Failed to encode gateway health: %v", err)
	}
}

func (g *Gateway) proxy(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, uuid.NewString())
	}
	w.Header().Set(RequestIDHeader, r.Header.Get(RequestIDHeader))

	upstream, release, err := g.pool.Acquire()
	if err != nil {
		writeText(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer release()

	ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
	upstream.proxy.ServeHTTP(ww, r)

	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	g.recorder.RecordUpstreamRequest(upstream.Key(), status)
	logger.Debugf("%s %s -> %s (%d) request_id=%s", r.Method, r.URL.Path, upstream.Key(), status, r.Header.Get(RequestIDHeader))
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg + "\n"))
}
