package launcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envTemplate = "PROJECT_NAME=Clima\nAPI_PORT=8000\n# comment kept verbatim\n"

type recordingRunner struct {
	name string
	args []string
	env  []string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, name string, args, env []string, _, _ io.Writer) error {
	r.name = name
	r.args = args
	r.env = env
	return r.err
}

func writeTemplate(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, ".env.example")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestEnsureEnvFileCopiesTemplate(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, envTemplate)
	target := filepath.Join(dir, ".env")

	created, err := EnsureEnvFile(tpl, target)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, envTemplate, string(got))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnsureEnvFileKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, envTemplate)
	target := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(target, []byte("SECURITY_SECRET_KEY=mine\n"), 0o600))

	created, err := EnsureEnvFile(tpl, target)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "SECURITY_SECRET_KEY=mine\n", string(got))
}

func TestEnsureEnvFileMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	_, err := EnsureEnvFile(filepath.Join(dir, "missing"), filepath.Join(dir, ".env"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, ".env"))
}

func TestUpRunsComposeAndPrintsURLs(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, "FRONTEND_URL=http://localhost:3000\nAPI_PORT=8080\n")
	runner := &recordingRunner{}
	var out bytes.Buffer

	l := New(Options{
		EnvFile:      filepath.Join(dir, ".env"),
		Template:     tpl,
		ComposeFiles: []string{"docker-compose.yml"},
		Profiles:     []string{"tools"},
	}, runner, &out, io.Discard)

	require.NoError(t, l.Up(context.Background()))
	assert.Equal(t, "docker", runner.name)
	assert.Equal(t, []string{"compose", "-f", "docker-compose.yml", "--profile", "tools", "--env-file", filepath.Join(dir, ".env"), "up", "-d"}, runner.args)
	assert.Contains(t, out.String(), "Frontend: http://localhost:3000")
	assert.Contains(t, out.String(), "API docs: http://localhost:8080/docs")
}

func TestUpPointsServicesAtTheChosenEnvFile(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, envTemplate)
	t.Chdir(dir)
	runner := &recordingRunner{}

	l := New(Options{EnvFile: "custom.env", Template: tpl}, runner, io.Discard, io.Discard)
	require.NoError(t, l.Up(context.Background()))

	assert.Contains(t, runner.args, "custom.env")
	require.Len(t, runner.env, 1)
	assert.Equal(t, "CLIMA_ENV_FILE="+filepath.Join(dir, "custom.env"), runner.env[0])
	assert.FileExists(t, filepath.Join(dir, "custom.env"))
}

func TestUpReturnsComposeError(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, envTemplate)
	runner := &recordingRunner{err: errors.New("compose failed")}
	var out bytes.Buffer

	l := New(Options{EnvFile: filepath.Join(dir, ".env"), Template: tpl}, runner, &out, io.Discard)
	err := l.Up(context.Background())
	assert.EqualError(t, err, "compose failed")
	assert.NotContains(t, out.String(), "API docs")
	assert.FileExists(t, filepath.Join(dir, ".env"))
}

func TestReadAccessURLsDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("PROJECT_NAME=x\n"), 0o600))

	urls, err := ReadAccessURLs(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultFrontendURL, urls.Frontend)
	assert.Equal(t, "http://localhost:8000/docs", urls.APIDocs)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}
