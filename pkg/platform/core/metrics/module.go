package metrics

import (
	"context"

	"go.uber.org/fx"

	"github.com/climanegocios/platform/pkg/platform/core/config"
)

// Module provides a Prometheus backed MetricRecorder and ties the tracer
// provider to the application lifecycle.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewPrometheusRecorder,
			fx.As(new(MetricRecorder)),
		),
	),
	fx.Invoke(registerTracing),
)

func registerTracing(lc fx.Lifecycle, cfg *config.Config) {
	var shutdown ShutdownFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = SetupTracing(ctx, cfg.System.Tracing, cfg.Project.Version)
			return err
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}
