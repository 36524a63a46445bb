package launcher

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnsureEnvFile copies template to target when target does not exist yet.
// An existing target is never touched. created reports whether a copy was made.
func EnsureEnvFile(template, target string) (created bool, err error) {
	if _, err := os.Stat(target); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", target, err)
	}

	src, err := os.Open(template)
	if err != nil {
		return false, fmt.Errorf("environment template %s: %w", template, err)
	}
	defer src.Close()

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	// O_EXCL keeps a file created concurrently by someone else intact.
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return false, fmt.Errorf("failed to copy %s to %s: %w", template, target, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return false, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return true, nil
}

// AccessURLs are the two endpoints printed after a successful start.
type AccessURLs struct {
	Frontend string
	APIDocs  string
}

// Fallbacks used when the environment file does not set the values.
const (
	DefaultFrontendURL = "http://localhost:3000"
	DefaultAPIPort     = "8000"
)

// ReadAccessURLs derives AccessURLs from FRONTEND_URL and API_PORT in envFile.
func ReadAccessURLs(envFile string) (AccessURLs, error) {
	env, err := godotenv.Read(envFile)
	if err != nil {
		return AccessURLs{}, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	urls := AccessURLs{
		Frontend: env["FRONTEND_URL"],
		APIDocs:  "http://localhost:" + DefaultAPIPort + "/docs",
	}
	if urls.Frontend == "" {
		urls.Frontend = DefaultFrontendURL
	}
	if port := env["API_PORT"]; port != "" {
		urls.APIDocs = "http://localhost:" + port + "/docs"
	}
	return urls, nil
}
