package application

import (
	"context"
	"time"
)

// retryWithBudget runs fn up to attempts times with a fixed delay
// between attempts. fn errors are swallowed into the next attempt; the
// last error is returned only when the budget is exhausted without a
// single success. Context cancellation aborts immediately.
func retryWithBudget(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) (bool, error)) (bool, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		ok, err := fn(ctx)
		if err == nil && ok {
			return true, nil
		}
		if err != nil {
			lastErr = err
		}

		if attempt < attempts-1 {
			if err := sleep(ctx, delay); err != nil {
				return false, err
			}
		}
	}

	return false, lastErr
}
