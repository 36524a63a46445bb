package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/fx"

	"github.com/climanegocios/platform/internal/repository"
	"github.com/climanegocios/platform/pkg/platform/adapter/cache"
	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	"github.com/climanegocios/platform/pkg/platform/adapter/storage"
	"github.com/climanegocios/platform/pkg/platform/adapter/storage/provider"
	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// ShutdownTimeout bounds how long in-flight requests may take once stopping.
const ShutdownTimeout = 15 * time.Second

// ServerParams are the dependencies of the API server.
type ServerParams struct {
	fx.In
	Config   *config.Config
	DB       database.DBConnection
	Cache    cache.Cache
	Stations repository.StationRepository
	Recorder metrics.MetricRecorder
}

// NewServerFromParams adapts NewServer to Fx.
func NewServerFromParams(p ServerParams) *Server {
	return NewServer(p.Config, p.DB, p.Cache, p.Stations, p.Recorder)
}

// NewHTTPServer wraps the handler in an http.Server bound to the configured address.
func NewHTTPServer(cfg *config.Config, handler *Server) *http.Server {
	return &http.Server{
		Addr:              cfg.APIAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// registerServer starts listening once the model store passed its write check,
// and asks Fx to shut down if the listener dies.
func registerServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *http.Server, _ storage.StorageConnection) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Infof("API listening on %s.", ln.Addr())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorf("API server stopped: %v", err)
					if shutdownErr := shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
						logger.Errorf("Failed to request shutdown: %v", shutdownErr)
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Shutting down API server.")
			ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

// checkWorkDirs fails startup when the log or upload directory cannot be written.
func checkWorkDirs(lc fx.Lifecycle, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return provider.CheckWritable(ctx, map[string]string{
				"logs":    cfg.System.LogsDir,
				"uploads": cfg.System.UploadsDir,
			})
		},
	})
}

// applyWorkers sizes the Go scheduler to API_WORKERS.
func applyWorkers(cfg *config.Config) {
	prev := runtime.GOMAXPROCS(cfg.API.Workers)
	logger.Infof("Serving with %d workers (GOMAXPROCS was %d).", cfg.API.Workers, prev)
}

// Module provides the API handler and runs it for the lifetime of the application.
var Module = fx.Options(
	fx.Provide(
		repository.NewStationRepository,
		NewServerFromParams,
		NewHTTPServer,
	),
	fx.Invoke(applyWorkers, checkWorkDirs, registerServer),
)
