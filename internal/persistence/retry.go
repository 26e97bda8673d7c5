package persistence

import (
	"context"
	"fmt"
	"time"
)

// WithRetry runs op up to maxRetries+1 times, backing off 100ms*attempt
// between tries, for idempotent operations only (natural-key upserts,
// read queries) — callers must not use it around operations with
// side effects that aren't safe to repeat.
func WithRetry(ctx context.Context, op func() error, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("persistence: retry exhausted after %d attempts: %w", maxRetries+1, lastErr)
}
