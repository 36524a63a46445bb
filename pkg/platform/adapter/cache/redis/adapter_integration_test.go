//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/internal/testinfra"
)

func TestAdapterAgainstRedis(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testinfra.NewRedisContainer(ctx)
	require.NoError(t, err)
	defer testinfra.CleanupContainer(t, ctx, container)

	a := NewAdapter(container.RedisConfig())
	defer a.Close()
	require.NoError(t, a.Ping(ctx))

	for _, key := range []string{"stations:search:a", "stations:search:b", "users:search:a"} {
		require.NoError(t, a.Set(ctx, key, map[string]int{"n": 1}, time.Minute))
	}

	var got map[string]int
	found, err := a.Get(ctx, "stations:search:a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["n"])

	removed, err := a.DeletePattern(ctx, "stations:search:*")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	found, err = a.Get(ctx, "stations:search:b", &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = a.Get(ctx, "users:search:a", &got)
	require.NoError(t, err)
	assert.True(t, found, "keys outside the pattern survive")
}
