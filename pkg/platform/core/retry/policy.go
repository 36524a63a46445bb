// Package retry decides whether and when a failed operation is attempted again.
package retry

import (
	"context"
	"time"

	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// RetryPolicy defines retry logic.
type RetryPolicy interface {
	// ShouldRetry determines if a given error is retryable.
	ShouldRetry(err error) bool
	// GetBackoffInterval returns the wait before the given attempt (starting from 1).
	GetBackoffInterval(attempt int) time.Duration
	// GetMaxAttempts returns the maximum number of attempts, the first one included.
	GetMaxAttempts() int
}

// fixedRetryPolicy waits a constant interval between attempts.
type fixedRetryPolicy struct {
	maxAttempts         int
	interval            time.Duration
	retryableExceptions []string
}

// NewFixedRetryPolicy creates a policy with a fixed delay. Errors are retried when
// exception.IsTemporary reports them as transient or when they match one of the
// retryableExceptions names.
func NewFixedRetryPolicy(maxAttempts int, interval time.Duration, retryableExceptions ...string) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &fixedRetryPolicy{
		maxAttempts:         maxAttempts,
		interval:            interval,
		retryableExceptions: retryableExceptions,
	}
}

func (p *fixedRetryPolicy) GetMaxAttempts() int {
	return p.maxAttempts
}

func (p *fixedRetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if exception.IsTemporary(err) {
		return true
	}
	for _, typeName := range p.retryableExceptions {
		if exception.IsErrorOfType(err, typeName) {
			return true
		}
	}
	return false
}

func (p *fixedRetryPolicy) GetBackoffInterval(attempt int) time.Duration {
	return p.interval
}

// Do runs fn until it succeeds, the policy gives up, or ctx is done.
// The last error from fn is returned.
func Do(ctx context.Context, policy RetryPolicy, name string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= policy.GetMaxAttempts(); attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == policy.GetMaxAttempts() || !policy.ShouldRetry(err) {
			return err
		}
		wait := policy.GetBackoffInterval(attempt)
		logger.Warnf("%s failed (attempt %d/%d), retrying in %s: %v", name, attempt, policy.GetMaxAttempts(), wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

var _ RetryPolicy = (*fixedRetryPolicy)(nil)
