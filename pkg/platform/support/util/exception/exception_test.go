package exception

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPlatformErrorfConsumesTrailingArgs(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	e := NewPlatformErrorf("bootstrap", "database %s not reachable", "db:5432", true, cause)
	assert.Equal(t, "bootstrap", e.Module)
	assert.Equal(t, "database db:5432 not reachable", e.Message)
	assert.Same(t, cause, e.Cause)
	assert.True(t, e.IsRetryable())
	assert.Equal(t, "[bootstrap] database db:5432 not reachable: dial tcp: connection refused", e.Error())

	plain := NewPlatformErrorf("config", "missing %s", "SECRET_KEY")
	assert.Nil(t, plain.Cause)
	assert.False(t, plain.IsRetryable())
	assert.Equal(t, "[config] missing SECRET_KEY", plain.Error())
}

func TestUnwrapSupportsErrorsIs(t *testing.T) {
	e := NewPlatformError("repository", "user lookup", ErrNotFound, false)
	wrapped := fmt.Errorf("admin: %w", e)

	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var pe *PlatformError
	assert.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, "user lookup", pe.Message)
}

func TestIsTemporary(t *testing.T) {
	assert.False(t, IsTemporary(nil))
	assert.True(t, IsTemporary(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")))
	assert.True(t, IsTemporary(fmt.Errorf("ping: %w", context.DeadlineExceeded)))
	assert.False(t, IsTemporary(errors.New("syntax error at or near")))

	// The retryable flag wins over message heuristics.
	notRetryable := NewPlatformError("bootstrap", "auth failed", errors.New("timeout"), false)
	assert.False(t, IsTemporary(fmt.Errorf("wrap: %w", notRetryable)))
	assert.True(t, IsTemporary(NewPlatformError("bootstrap", "starting", nil, true)))
}

func TestIsErrorOfType(t *testing.T) {
	assert.True(t, IsErrorOfType(fmt.Errorf("read: %w", io.EOF), "io.EOF"))
	assert.True(t, IsErrorOfType(errors.New("server closed: connection reset"), "connection reset"))

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	assert.True(t, IsErrorOfType(fmt.Errorf("wrap: %w", opErr), "net.OpError"))
	assert.True(t, IsErrorOfType(opErr, "*net.OpError"))
	assert.False(t, IsErrorOfType(errors.New("other"), "io.EOF"))
	assert.False(t, IsErrorOfType(nil, "io.EOF"))
}

func TestRegisterErrorType(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	RegisterErrorType("QuotaExceeded", sentinel)

	assert.True(t, IsErrorOfType(fmt.Errorf("call: %w", sentinel), "QuotaExceeded"))
	assert.Panics(t, func() { RegisterErrorType("", sentinel) })
	assert.Panics(t, func() { RegisterErrorType("nil", nil) })
}
