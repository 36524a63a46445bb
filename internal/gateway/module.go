package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

const shutdownTimeout = 15 * time.Second

func newPool(cfg *config.Config, recorder metrics.MetricRecorder) *Pool {
	return NewPool(cfg.Gateway.FailureThreshold, recorder)
}

func newChecker(cfg *config.Config, pool *Pool) (*Checker, error) {
	specs, err := ParseUpstreams(cfg.Gateway.UpstreamList())
	if err != nil {
		return nil, err
	}
	gw := cfg.Gateway
	return NewChecker(pool, specs, nil, gw.HealthPath,
		time.Duration(gw.HealthIntervalSeconds)*time.Second,
		time.Duration(gw.HealthTimeoutSeconds)*time.Second), nil
}

func runChecker(lc fx.Lifecycle, checker *Checker) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				checker.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

type listener struct {
	srv      *http.Server
	certFile string
	keyFile  string
}

func (l listener) serve(ln net.Listener) error {
	if l.certFile != "" {
		return l.srv.ServeTLS(ln, l.certFile, l.keyFile)
	}
	return l.srv.Serve(ln)
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// listeners returns the plain HTTP listener and, when certificates are configured, the TLS one.
func listeners(cfg config.GatewayConfig, handler http.Handler) []listener {
	out := []listener{{srv: newServer(cfg.ListenAddr, handler)}}
	if cfg.TLSEnabled() {
		out = append(out, listener{srv: newServer(cfg.TLSListenAddr, handler), certFile: cfg.TLSCertFile, keyFile: cfg.TLSKeyFile})
	}
	return out
}

func runServers(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, gw *Gateway) {
	for _, l := range listeners(cfg.Gateway, gw) {
		l := l
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				ln, err := net.Listen("tcp", l.srv.Addr)
				if err != nil {
					return err
				}
				logger.Infof("Gateway listening on %s (tls: %t).", ln.Addr(), l.certFile != "")
				go func() {
					if err := l.serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Errorf("Gateway listener %s stopped: %v", l.srv.Addr, err)
						if shutdownErr := shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
							logger.Errorf("Failed to request shutdown: %v", shutdownErr)
						}
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
				defer cancel()
				return l.srv.Shutdown(ctx)
			},
		})
	}
}

// Module runs the health checker and the proxy listeners.
var Module = fx.Options(
	fx.Provide(newPool, newChecker, New),
	fx.Invoke(runChecker, runServers),
)
