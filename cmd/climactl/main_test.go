package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/internal/topology"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderProductionCompose(t *testing.T) {
	out, err := execute(t, "render", "--env", "prod")
	require.NoError(t, err)

	parsed, err := topology.Parse(bytes.NewBufferString(out))
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.Services["api"].Replicas())
}

func TestRenderDockerfileToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Dockerfile")
	_, err := execute(t, "render", "--env", "dockerfile", "-o", path)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "USER appuser")
}

func TestRenderRefusesInvalidTopology(t *testing.T) {
	topo := topology.Development()
	topo.Services["api"].DependsOn["ghost"] = topology.Dependency{Condition: topology.ConditionStarted}

	var out bytes.Buffer
	err := renderTopology(topo, &out)
	assert.ErrorContains(t, err, "depends on unknown service ghost")
	assert.Zero(t, out.Len())
}

func TestRenderUnknownTarget(t *testing.T) {
	_, err := execute(t, "render", "--env", "staging")
	assert.ErrorContains(t, err, "unknown render target")
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"up"}, {"bootstrap"}, {"render"}, {"admin", "create"}, {"seed"}, {"stations", "search"}, {"models", "list"},
		{"migrate", "status"}, {"migrate", "down"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	up, _, _ := root.Find([]string{"up"})
	for _, flag := range []string{"template", "prod", "profile"} {
		assert.NotNil(t, up.Flags().Lookup(flag), flag)
	}
	bootstrapCmd, _, _ := root.Find([]string{"bootstrap"})
	assert.Equal(t, "30", bootstrapCmd.Flags().Lookup("wait-attempts").DefValue)
	assert.Equal(t, "2s", bootstrapCmd.Flags().Lookup("wait-delay").DefValue)
}

func TestCommittedFilesMatchRenderers(t *testing.T) {
	for file, target := range map[string]string{
		"../../docker-compose.yml":      renderDev,
		"../../docker-compose.prod.yml": renderProd,
	} {
		committed, err := os.ReadFile(file)
		require.NoError(t, err, file)
		fromFile, err := topology.Parse(bytes.NewReader(committed))
		require.NoError(t, err, file)

		var rendered bytes.Buffer
		require.NoError(t, render(target, &rendered))
		fromRenderer, err := topology.Parse(&rendered)
		require.NoError(t, err)

		assert.Equal(t, fromRenderer, fromFile, "%s is stale: run climactl render --env %s -o %s", file, target, filepath.Base(file))
	}

	committed, err := os.ReadFile("../../Dockerfile")
	require.NoError(t, err)
	var rendered bytes.Buffer
	require.NoError(t, render(renderDockerfile, &rendered))
	assert.Equal(t, rendered.String(), string(committed))
}
