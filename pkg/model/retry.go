package model

import (
	"context"
	"time"
)

// withRetry runs fn until it succeeds, the error stops being retryable, or
// the attempt budget is spent. Backoff grows quadratically from 100ms.
func withRetry(ctx context.Context, maxRetries int, retryable func(error) bool, fn func(context.Context) error) error {
	attempts := 0
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) || attempts >= maxRetries {
			return err
		}
		attempts++
		backoff := time.Duration(attempts*attempts) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
