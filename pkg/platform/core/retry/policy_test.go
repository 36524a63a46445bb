package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
)

func TestShouldRetry(t *testing.T) {
	p := NewFixedRetryPolicy(3, time.Millisecond, "too many clients")

	assert.False(t, p.ShouldRetry(nil))
	assert.True(t, p.ShouldRetry(errors.New("dial tcp: connection refused")))
	assert.True(t, p.ShouldRetry(errors.New("FATAL: sorry, too many clients already")))
	assert.False(t, p.ShouldRetry(errors.New("password authentication failed")))
	assert.True(t, p.ShouldRetry(exception.NewPlatformError("bootstrap", "warming up", nil, true)))
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := NewFixedRetryPolicy(5, time.Millisecond)
	calls := 0

	err := Do(context.Background(), p, "ping", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewFixedRetryPolicy(5, time.Millisecond)
	calls := 0
	perm := errors.New("permission denied for database")

	err := Do(context.Background(), p, "ping", func(ctx context.Context) error {
		calls++
		return perm
	})

	assert.ErrorIs(t, err, perm)
	assert.Equal(t, 1, calls)
}

func TestDoBoundedAttempts(t *testing.T) {
	p := NewFixedRetryPolicy(3, time.Millisecond)
	calls := 0

	err := Do(context.Background(), p, "ping", func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonoursContext(t *testing.T) {
	p := NewFixedRetryPolicy(10, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, "ping", func(ctx context.Context) error { return errors.New("connection refused") })
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestMaxAttemptsFloor(t *testing.T) {
	assert.Equal(t, 1, NewFixedRetryPolicy(0, 0).GetMaxAttempts())
}
