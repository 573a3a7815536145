// Package retry implements the bounded exponential backoff spec.md §7
// requires for transient store errors ("retried with bounded exponential
// backoff (3 attempts)"). Grounded on orchid/pkg/redis/lock.go's
// TryAcquire, generalized from a deadline-bounded poll loop to a
// fixed-attempt-count retry of an arbitrary operation.
package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, doubling the delay between attempts
// starting at base and capped at max. Returns fn's last error if every
// attempt fails, or ctx.Err() if the context is cancelled while waiting.
func Do(ctx context.Context, attempts int, base, max time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	backoff := base
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > max {
				backoff = max
			}
		}
	}
	return err
}
