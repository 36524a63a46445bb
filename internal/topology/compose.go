// Package topology models the container orchestration of the platform: the
// development and production compose files and the image they run.
package topology

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Dependency conditions understood by compose.
const (
	ConditionStarted   = "service_started"
	ConditionHealthy   = "service_healthy"
	ConditionCompleted = "service_completed_successfully"
)

// Duration renders as a compose duration string such as "30s".
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Topology is one compose file.
type Topology struct {
	Name     string              `yaml:"name,omitempty"`
	Services map[string]*Service `yaml:"services"`
	Volumes  map[string]Volume   `yaml:"volumes,omitempty"`
	Networks map[string]Network  `yaml:"networks,omitempty"`
}

// Volume is a named volume with default settings.
type Volume struct{}

// Network is a named network.
type Network struct {
	Driver string `yaml:"driver,omitempty"`
}

// Build points at the Dockerfile of a locally built service.
type Build struct {
	Context    string `yaml:"context"`
	Dockerfile string `yaml:"dockerfile,omitempty"`
}

// Dependency is a depends_on entry.
type Dependency struct {
	Condition string `yaml:"condition"`
}

// HealthCheck is a container health probe.
type HealthCheck struct {
	Test        []string `yaml:"test"`
	Interval    Duration `yaml:"interval,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
	Retries     int      `yaml:"retries,omitempty"`
	StartPeriod Duration `yaml:"start_period,omitempty"`
}

// ResourceSpec bounds cpu and memory.
type ResourceSpec struct {
	CPUs   string `yaml:"cpus,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

// Resources holds per-replica limits and reservations.
type Resources struct {
	Limits       *ResourceSpec `yaml:"limits,omitempty"`
	Reservations *ResourceSpec `yaml:"reservations,omitempty"`
}

// RestartPolicy restarts failed replicas a bounded number of times.
type RestartPolicy struct {
	Condition   string   `yaml:"condition"`
	Delay       Duration `yaml:"delay,omitempty"`
	MaxAttempts int      `yaml:"max_attempts,omitempty"`
	Window      Duration `yaml:"window,omitempty"`
}

// Deploy configures replication.
type Deploy struct {
	Replicas      int            `yaml:"replicas"`
	Resources     *Resources     `yaml:"resources,omitempty"`
	RestartPolicy *RestartPolicy `yaml:"restart_policy,omitempty"`
}

// Service is one compose service.
type Service struct {
	Image       string                `yaml:"image,omitempty"`
	Build       *Build                `yaml:"build,omitempty"`
	Command     []string              `yaml:"command,omitempty"`
	EnvFile     []string              `yaml:"env_file,omitempty"`
	Environment map[string]string     `yaml:"environment,omitempty"`
	Ports       []string              `yaml:"ports,omitempty"`
	Volumes     []string              `yaml:"volumes,omitempty"`
	DependsOn   map[string]Dependency `yaml:"depends_on,omitempty"`
	HealthCheck *HealthCheck          `yaml:"healthcheck,omitempty"`
	Restart     string                `yaml:"restart,omitempty"`
	Profiles    []string              `yaml:"profiles,omitempty"`
	Networks    []string              `yaml:"networks,omitempty"`
	Deploy      *Deploy               `yaml:"deploy,omitempty"`
}

// Replicas returns the declared replica count, 1 without a deploy section.
func (s *Service) Replicas() int {
	if s.Deploy == nil {
		return 1
	}
	return s.Deploy.Replicas
}

// ServiceNames returns the service names in sorted order.
func (t *Topology) ServiceNames() []string {
	names := make([]string, 0, len(t.Services))
	for name := range t.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the cross-service rules compose itself only reports at run time.
func (t *Topology) Validate() error {
	var result *multierror.Error
	hostPorts := map[string]string{}

	for _, name := range t.ServiceNames() {
		svc := t.Services[name]
		if svc.Image == "" && svc.Build == nil {
			result = multierror.Append(result, fmt.Errorf("service %s: needs an image or a build context", name))
		}
		for dep, cond := range svc.DependsOn {
			target, ok := t.Services[dep]
			if !ok {
				result = multierror.Append(result, fmt.Errorf("service %s: depends on unknown service %s", name, dep))
				continue
			}
			switch cond.Condition {
			case ConditionHealthy:
				if target.HealthCheck == nil {
					result = multierror.Append(result, fmt.Errorf("service %s: waits for %s to be healthy but %s has no health check", name, dep, dep))
				}
			case ConditionStarted, ConditionCompleted:
			default:
				result = multierror.Append(result, fmt.Errorf("service %s: unknown dependency condition %q", name, cond.Condition))
			}
		}
		if svc.Deploy != nil && svc.Deploy.Replicas < 1 {
			result = multierror.Append(result, fmt.Errorf("service %s: replicas must be at least 1", name))
		}
		if svc.Replicas() > 1 && len(svc.Ports) > 0 {
			result = multierror.Append(result, fmt.Errorf("service %s: %d replicas cannot share published ports", name, svc.Replicas()))
		}
		for _, p := range svc.Ports {
			host := hostPort(p)
			if other, dup := hostPorts[host]; dup {
				result = multierror.Append(result, fmt.Errorf("service %s: host port %s already published by %s", name, host, other))
				continue
			}
			hostPorts[host] = name
		}
		for _, v := range svc.Volumes {
			source, _, found := strings.Cut(v, ":")
			if !found || strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") {
				continue
			}
			if _, ok := t.Volumes[source]; !ok {
				result = multierror.Append(result, fmt.Errorf("service %s: volume %s is not declared", name, source))
			}
		}
	}
	return result.ErrorOrNil()
}

// hostPort extracts the published side of "host:container" or "ip:host:container".
func hostPort(mapping string) string {
	parts := strings.Split(mapping, ":")
	if len(parts) < 2 {
		return mapping
	}
	return parts[len(parts)-2]
}

// Render writes t as compose YAML. Map keys are sorted, so output is stable.
func (t *Topology) Render(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to render topology %s: %w", t.Name, err)
	}
	return enc.Close()
}

// Parse reads a compose file produced by Render.
func Parse(r io.Reader) (*Topology, error) {
	var t Topology
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}
	return &t, nil
}
