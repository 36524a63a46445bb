package topology

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimePackagesHaveNoToolchain(t *testing.T) {
	img := DefaultImage()
	pkgs := img.RuntimePackages()
	require.NotEmpty(t, pkgs)
	for _, p := range pkgs {
		assert.False(t, IsToolchainPackage(p), p)
	}
	for _, p := range []string{"gcc", "g++", "make", "musl-dev", "build-base", "go"} {
		assert.NotContains(t, pkgs, p)
	}

	assert.Error(t, img.SetRuntimePackages("ca-certificates", "gcc"))
	require.NoError(t, img.SetRuntimePackages("ca-certificates"))
	assert.Equal(t, []string{"ca-certificates"}, img.RuntimePackages())
}

func TestRenderDockerfile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultImage().RenderDockerfile(&buf))
	out := buf.String()

	stages := strings.Split(out, "\nFROM ")
	require.Len(t, stages, 3, "two FROM lines expected")
	builder, runtime := stages[1], stages[2]

	assert.Contains(t, builder, "AS builder")
	assert.Contains(t, builder, "apk add --no-cache build-base git")
	assert.Contains(t, builder, "COPY go.mod go.sum* ./\nRUN go mod download\nCOPY . .\n")
	assert.NotContains(t, builder, "go mod tidy")
	assert.Contains(t, builder, "ENV CGO_ENABLED=0")
	assert.Contains(t, builder, "-o /out/climanegocios ./cmd/climanegocios")
	assert.Contains(t, builder, "-o /out/gateway ./cmd/gateway")

	assert.Contains(t, runtime, "apk add --no-cache ca-certificates tzdata libpq geos proj")
	for _, tool := range []string{"build-base", "gcc", "musl-dev", " make"} {
		assert.NotContains(t, runtime, tool)
	}
	assert.Contains(t, runtime, "mkdir -p /app/models /app/logs /app/uploads")
	assert.Contains(t, runtime, "USER appuser")
	assert.Contains(t, runtime, "HEALTHCHECK --interval=30s --timeout=10s --start-period=5s --retries=3")
	assert.Contains(t, runtime, `CMD ["climanegocios", "healthcheck"]`)
	assert.Contains(t, runtime, `CMD ["climanegocios", "serve", "--workers", "4"]`)
}

func TestRenderDockerfileRejectsRoot(t *testing.T) {
	img := DefaultImage()
	img.User = "root"
	assert.Error(t, img.RenderDockerfile(&bytes.Buffer{}))
}
