// Package retry provides a small composable retry policy applied at call
// sites. A Policy bounds the number of attempts and waits a fixed delay
// between them; what to do once attempts are exhausted (degrade to a zero
// value or propagate) is the caller's decision.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded fixed-delay retry schedule.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// Do runs op until it succeeds, returns a permanent error, the context is
// cancelled, or MaxAttempts is reached. On exhaustion the last error is
// returned unchanged.
func (p Policy) Do(ctx context.Context, op func() error) error {
	return backoff.Retry(op, p.backoff(ctx))
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	return backoff.RetryWithData(op, p.backoff(ctx))
}

// Permanent marks err as non-retryable; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (p Policy) backoff(ctx context.Context) backoff.BackOffContext {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}
