package config

import (
	"os"
	"strings"
)

// EnvironmentExpander expands environment variable placeholders within configuration data.
type EnvironmentExpander interface {
	// Expand returns input with ${VAR} and $VAR placeholders replaced.
	Expand(input []byte) ([]byte, error)
}

// OsEnvironmentExpander expands placeholders from the process environment.
// Besides ${VAR} and $VAR it understands ${VAR:-default}, which yields default
// when VAR is unset or empty.
type OsEnvironmentExpander struct {
	lookup func(string) (string, bool)
}

// NewOsEnvironmentExpander creates an expander reading os.LookupEnv.
func NewOsEnvironmentExpander() *OsEnvironmentExpander {
	return &OsEnvironmentExpander{lookup: os.LookupEnv}
}

// Expand implements EnvironmentExpander. It never fails.
func (e *OsEnvironmentExpander) Expand(input []byte) ([]byte, error) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	expanded := os.Expand(string(input), func(name string) string {
		key, def, hasDefault := strings.Cut(name, ":-")
		if v, ok := lookup(key); ok && (v != "" || !hasDefault) {
			return v
		}
		return def
	})
	return []byte(expanded), nil
}
