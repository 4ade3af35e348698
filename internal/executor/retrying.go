package executor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/helios-lab/helios-trading/pkg/errors"
)

// RetryingExecutor decorates a FillExecutor with constant-interval retries.
// It is intended for executors backed by a real venue, where transient
// failures are expected.
type RetryingExecutor struct {
	inner      FillExecutor
	interval   time.Duration
	maxRetries uint64
}

// NewRetryingExecutor wraps inner so each order is attempted up to
// maxRetries+1 times, waiting interval between attempts.
func NewRetryingExecutor(inner FillExecutor, interval time.Duration, maxRetries uint64) *RetryingExecutor {
	return &RetryingExecutor{
		inner:      inner,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

// ExecuteBuy implements FillExecutor.
func (e *RetryingExecutor) ExecuteBuy(ctx context.Context, price float64, notional float64) (Fill, error) {
	return e.retry(ctx, func() (Fill, error) {
		return e.inner.ExecuteBuy(ctx, price, notional)
	})
}

// ExecuteSell implements FillExecutor.
func (e *RetryingExecutor) ExecuteSell(ctx context.Context, price float64, quantity float64) (Fill, error) {
	return e.retry(ctx, func() (Fill, error) {
		return e.inner.ExecuteSell(ctx, price, quantity)
	})
}

func (e *RetryingExecutor) retry(ctx context.Context, op func() (Fill, error)) (Fill, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.interval), e.maxRetries), ctx)

	fill, err := backoff.RetryWithData(op, policy)
	if err != nil {
		return Fill{}, errors.Wrap(errors.ErrCodeRetriesExhausted, "order execution failed", err)
	}

	return fill, nil
}
