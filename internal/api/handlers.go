package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/climanegocios/platform/internal/domain/entity"
	"github.com/climanegocios/platform/internal/repository"
	"github.com/climanegocios/platform/pkg/platform/adapter/cache"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

const readinessTimeout = 3 * time.Second

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Message     string `json:"message"`
	Docs        string `json:"docs"`
}

// HealthResponse is the body of the probe endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime float64           `json:"uptime_seconds"`
	Checks map[string]string `json:"checks,omitempty"`
}

// RouteInfo describes one registered route in GET /docs.
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// StationsResponse is the body of the station search.
type StationsResponse struct {
	City     string           `json:"city"`
	Count    int              `json:"count"`
	Cached   bool             `json:"cached"`
	Stations []entity.Station `json:"stations"`
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Name:        s.cfg.Project.Name,
		Version:     s.cfg.Project.Version,
		Environment: s.cfg.Project.Environment,
		Message:     "Clima & Negócios API is running",
		Docs:        "/docs",
	})
}

// health answers as long as the process can serve requests.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Uptime: time.Since(s.started).Seconds()})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"database": "ok", "cache": "ok"}
	status := http.StatusOK
	if s.db == nil {
		checks["database"] = "not configured"
		status = http.StatusServiceUnavailable
	} else if err := s.db.Ping(ctx); err != nil {
		logger.Warnf("Readiness: database ping failed: %v", err)
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if s.cache == nil {
		checks["cache"] = "not configured"
		status = http.StatusServiceUnavailable
	} else if err := s.cache.Ping(ctx); err != nil {
		logger.Warnf("Readiness: cache ping failed: %v", err)
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	body := HealthResponse{Status: "ready", Uptime: time.Since(s.started).Seconds(), Checks: checks}
	if status != http.StatusOK {
		body.Status = "not ready"
	}
	writeJSON(w, status, body)
}

func (s *Server) docs(w http.ResponseWriter, r *http.Request) {
	var routes []RouteInfo
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		routes = append(routes, RouteInfo{Method: method, Pattern: route})
		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	writeJSON(w, http.StatusOK, routes)
}

func (s *Server) searchStations(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	limit := repository.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > repository.MaxSearchLimit {
			writeError(w, http.StatusUnprocessableEntity, "limit must be an integer between 1 and "+strconv.Itoa(repository.MaxSearchLimit))
			return
		}
		limit = n
	}

	ctx := r.Context()
	key := cache.GenerateKey(repository.StationSearchCachePrefix, map[string]interface{}{"city": strings.ToLower(city), "limit": limit})

	if s.cache != nil {
		var cached []entity.Station
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warnf("Station cache unavailable, reading from database: %v", err)
		}
		s.recorder.RecordCacheLookup(repository.StationSearchCachePrefix, found)
		if found {
			writeJSON(w, http.StatusOK, StationsResponse{City: city, Count: len(cached), Cached: true, Stations: cached})
			return
		}
	}

	stations, err := s.stations.SearchByCity(ctx, city, limit)
	if err != nil {
		logger.Errorf("Station search for '%s' failed: %v", city, err)
		writeError(w, http.StatusInternalServerError, "station search failed")
		return
	}
	if stations == nil {
		stations = []entity.Station{}
	}

	if s.cache != nil {
		ttl := time.Duration(s.cfg.Redis.CacheTTLSeconds) * time.Second
		if err := s.cache.Set(ctx, key, stations, ttl); err != nil {
			logger.Warnf("Failed to cache station search: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, StationsResponse{City: city, Count: len(stations), Stations: stations})
}
