package application

import (
	"context"
	"math/rand"
	"time"
)

// sleep suspends for d, waking early if ctx is cancelled. Every delay
// in the session loop goes through here so shutdown never waits out a
// long eligibility window.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jitter returns a uniformly random duration in [min, max).
func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepBetween(ctx context.Context, min, max time.Duration) error {
	return sleep(ctx, jitter(min, max))
}

// randomBetween returns a uniformly random integer in [min, max].
func randomBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}
