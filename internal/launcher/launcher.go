// Package launcher starts the local stack: it prepares the environment file,
// brings the compose topology up in the background and prints where to go next.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/climanegocios/platform/internal/topology"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// Options configures a Launcher.
type Options struct {
	EnvFile      string
	Template     string
	ComposeFiles []string
	Profiles     []string
	// ComposeCommand is the compose binary and its leading arguments.
	ComposeCommand []string
}

// DefaultOptions returns the options used by `climactl up`.
func DefaultOptions() Options {
	return Options{
		EnvFile:        ".env",
		Template:       ".env.example",
		ComposeCommand: []string{"docker", "compose"},
	}
}

// Launcher runs the start sequence.
type Launcher struct {
	opts   Options
	runner Runner
	out    io.Writer
	errOut io.Writer
}

// New creates a Launcher. A nil runner defaults to ExecRunner.
func New(opts Options, runner Runner, out, errOut io.Writer) *Launcher {
	if runner == nil {
		runner = ExecRunner{}
	}
	if len(opts.ComposeCommand) == 0 {
		opts.ComposeCommand = DefaultOptions().ComposeCommand
	}
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Launcher{opts: opts, runner: runner, out: out, errOut: errOut}
}

// ComposeArgs returns the arguments passed to the compose binary.
func (l *Launcher) ComposeArgs() []string {
	args := append([]string{}, l.opts.ComposeCommand[1:]...)
	for _, f := range l.opts.ComposeFiles {
		args = append(args, "-f", f)
	}
	for _, p := range l.opts.Profiles {
		args = append(args, "--profile", p)
	}
	args = append(args, "--env-file", l.opts.EnvFile, "up", "-d")
	return args
}

// ComposeEnv points the services' env_file at the chosen environment file.
// The path is made absolute because compose resolves env_file entries
// relative to the compose file, not the working directory.
func (l *Launcher) ComposeEnv() ([]string, error) {
	path, err := filepath.Abs(l.opts.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", l.opts.EnvFile, err)
	}
	return []string{topology.EnvFileVar + "=" + path}, nil
}

// Up ensures the environment file, starts the stack detached and prints the
// access URLs. The compose error is returned unchanged so its exit code survives.
func (l *Launcher) Up(ctx context.Context) error {
	created, err := EnsureEnvFile(l.opts.Template, l.opts.EnvFile)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(l.out, "Created %s from %s. Review it before going to production.\n", l.opts.EnvFile, l.opts.Template)
	}

	env, err := l.ComposeEnv()
	if err != nil {
		return err
	}

	fmt.Fprintln(l.out, "Starting Clima & Negócios...")
	logger.Debugf("Running %s %v with %v", l.opts.ComposeCommand[0], l.ComposeArgs(), env)
	if err := l.runner.Run(ctx, l.opts.ComposeCommand[0], l.ComposeArgs(), env, l.out, l.errOut); err != nil {
		return err
	}

	urls, err := ReadAccessURLs(l.opts.EnvFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "Frontend: %s\n", urls.Frontend)
	fmt.Fprintf(l.out, "API docs: %s\n", urls.APIDocs)
	return nil
}
