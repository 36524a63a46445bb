// Package api serves the public HTTP API: service metadata, liveness and
// readiness probes, Prometheus metrics, a route catalogue and the station lookup.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/climanegocios/platform/internal/domain/entity"
	"github.com/climanegocios/platform/pkg/platform/adapter/cache"
	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
)

// Pinger is anything readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StationSearcher looks stations up by city.
type StationSearcher interface {
	SearchByCity(ctx context.Context, city string, limit int) ([]entity.Station, error)
}

// HealthRateLimit bounds probe requests per client IP per minute.
const HealthRateLimit = 1000

// Server holds the handlers and their dependencies.
type Server struct {
	cfg      *config.Config
	db       Pinger
	cache    cache.Cache
	stations StationSearcher
	recorder metrics.MetricRecorder
	started  time.Time
	router   chi.Router
}

// NewServer builds the router. cache may be nil, in which case lookups go straight to the database.
func NewServer(cfg *config.Config, db Pinger, c cache.Cache, stations StationSearcher, recorder metrics.MetricRecorder) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		cache:    c,
		stations: stations,
		recorder: recorder,
		started:  time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(tracing)
	r.Use(instrument(s.recorder))

	r.Get("/", s.root)
	r.Get("/docs", s.docs)
	r.Method(http.MethodGet, "/metrics", s.recorder.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Use(rateLimitByIP(HealthRateLimit, time.Minute))
		r.Get("/", s.health)
		r.Get("/ready", s.ready)
	})

	r.Route(s.cfg.API.Prefix, func(r chi.Router) {
		r.Get("/stations", s.searchStations)
	})
	return r
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
