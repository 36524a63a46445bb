package topology

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

// Image describes the two-stage container build.
type Image struct {
	BuilderImage string
	RuntimeImage string
	// BuildPackages exist only in the builder stage.
	BuildPackages []string
	// Binaries are built from ./cmd/<name> and copied to /usr/local/bin.
	Binaries        []string
	WorkDir         string
	Dirs            []string
	User            string
	UID             int
	Port            int
	HealthCheck     HealthCheck
	Cmd             []string
	runtimePackages []string
}

// toolchainPackages must never reach the runtime stage.
var toolchainPackages = map[string]bool{
	"build-base": true,
	"gcc":        true,
	"g++":        true,
	"make":       true,
	"musl-dev":   true,
	"go":         true,
	"git":        true,
	"binutils":   true,
}

// IsToolchainPackage reports whether pkg is a compiler or build tool.
func IsToolchainPackage(pkg string) bool {
	return toolchainPackages[pkg]
}

// DefaultImage is the API image built by the repository Dockerfile.
func DefaultImage() *Image {
	return &Image{
		BuilderImage:    "golang:1.25-alpine",
		RuntimeImage:    "alpine:3.20",
		BuildPackages:   []string{"build-base", "git"},
		Binaries:        []string{"climanegocios", "climactl", "gateway"},
		WorkDir:         "/app",
		Dirs:            []string{"/app/models", "/app/logs", "/app/uploads"},
		User:            "appuser",
		UID:             1000,
		Port:            APIPort,
		HealthCheck:     APIHealthCheck,
		Cmd:             []string{"climanegocios", "serve", "--workers", "4"},
		runtimePackages: []string{"ca-certificates", "tzdata", "libpq", "geos", "proj"},
	}
}

// RuntimePackages returns the packages installed in the final stage, without
// any toolchain package.
func (img *Image) RuntimePackages() []string {
	out := make([]string, 0, len(img.runtimePackages))
	for _, p := range img.runtimePackages {
		if !IsToolchainPackage(p) {
			out = append(out, p)
		}
	}
	return out
}

// SetRuntimePackages replaces the runtime package list. Toolchain packages are rejected.
func (img *Image) SetRuntimePackages(pkgs ...string) error {
	for _, p := range pkgs {
		if IsToolchainPackage(p) {
			return fmt.Errorf("package %s is a build tool and cannot be installed in the runtime stage", p)
		}
	}
	img.runtimePackages = append([]string(nil), pkgs...)
	return nil
}

const dockerfileTemplate = `# syntax=docker/dockerfile:1

FROM {{ .BuilderImage }} AS builder
RUN apk add --no-cache {{ join .BuildPackages " " }}
WORKDIR /src
COPY go.mod go.sum* ./
RUN go mod download
COPY . .
ENV CGO_ENABLED=0
{{- range .Binaries }}
RUN go build -trimpath -ldflags="-s -w" -o /out/{{ . }} ./cmd/{{ . }}
{{- end }}

FROM {{ .RuntimeImage }}
RUN apk add --no-cache {{ join .RuntimePackages " " }}
WORKDIR {{ .WorkDir }}
COPY --from=builder /out/ /usr/local/bin/
COPY .env.example {{ .WorkDir }}/.env.example
RUN addgroup -S -g {{ .UID }} {{ .User }} \
    && adduser -S -D -u {{ .UID }} -G {{ .User }} {{ .User }} \
    && mkdir -p {{ join .Dirs " " }} \
    && chown -R {{ .User }}:{{ .User }} {{ .WorkDir }}
USER {{ .User }}
EXPOSE {{ .Port }}
HEALTHCHECK --interval={{ duration .HealthCheck.Interval }} --timeout={{ duration .HealthCheck.Timeout }} --start-period={{ duration .HealthCheck.StartPeriod }} --retries={{ .HealthCheck.Retries }} \
    CMD {{ exec (probe .HealthCheck.Test) }}
CMD {{ exec .Cmd }}
`

var dockerfile = template.Must(template.New("Dockerfile").Funcs(template.FuncMap{
	"join":     strings.Join,
	"duration": func(d Duration) string { return time.Duration(d).String() },
	"exec":     execForm,
	"probe": func(test []string) []string {
		if len(test) > 0 && test[0] == "CMD" {
			return test[1:]
		}
		return test
	},
}).Parse(dockerfileTemplate))

// execForm renders args as a JSON array, the exec form of CMD.
func execForm(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// RenderDockerfile writes the Dockerfile of img.
func (img *Image) RenderDockerfile(w io.Writer) error {
	if err := img.validate(); err != nil {
		return err
	}
	return dockerfile.Execute(w, img)
}

func (img *Image) validate() error {
	switch {
	case img.BuilderImage == "" || img.RuntimeImage == "":
		return fmt.Errorf("image: builder and runtime base images are required")
	case img.User == "" || img.User == "root" || img.UID == 0:
		return fmt.Errorf("image: a non-root user is required")
	case len(img.Binaries) == 0:
		return fmt.Errorf("image: no binaries to build")
	case len(img.Cmd) == 0:
		return fmt.Errorf("image: no startup command")
	}
	return nil
}
