package launcher

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Runner executes an external command. env entries ("KEY=value") are added
// to the inherited environment.
type Runner interface {
	Run(ctx context.Context, name string, args, env []string, stdout, stderr io.Writer) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Dir is the working directory; empty means the current one.
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, name string, args, env []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ExitCode maps a Runner error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}
