package redis

import (
	"context"

	"go.uber.org/fx"

	"github.com/climanegocios/platform/pkg/platform/adapter/cache"
	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

func newCache(lc fx.Lifecycle, cfg *config.Config) cache.Cache {
	a := NewAdapter(cfg.Redis)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The cache is optional at startup; readiness reports it.
			if err := a.Ping(ctx); err != nil {
				logger.Warnf("Cache at %s not reachable yet: %v", a.addr, err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return a.Close()
		},
	})
	return a
}

// Module provides cache.Cache backed by Redis.
var Module = fx.Options(
	fx.Provide(newCache),
)
