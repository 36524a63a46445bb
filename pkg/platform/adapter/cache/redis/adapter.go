// Package redis implements cache.Cache on top of go-redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/climanegocios/platform/pkg/platform/adapter/cache"
	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

const scanBatch = 200

// Adapter is a Redis backed cache.Cache.
type Adapter struct {
	client *goredis.Client
	addr   string
}

// NewAdapter creates a client for cfg. No connection is made until first use.
func NewAdapter(cfg config.RedisConfig) *Adapter {
	addr := cfg.Addr()
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		MaxRetries:   1,
	})
	return &Adapter{client: client, addr: addr}
}

func (a *Adapter) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := a.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (a *Adapter) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := a.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return a.client.Del(ctx, keys...).Err()
}

// DeletePattern walks the keyspace with SCAN rather than KEYS so large
// keyspaces do not block the server.
func (a *Adapter) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := a.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := a.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("cache delete %s: %w", pattern, err)
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *Adapter) Close() error {
	logger.Debugf("Closing cache client for %s.", a.addr)
	return a.client.Close()
}

var _ cache.Cache = (*Adapter)(nil)
