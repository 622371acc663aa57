// ABOUTME: Retry utilities for embedding provider calls with exponential backoff
// ABOUTME: Backoff is capped, jittered, and cancellable via context
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// CalculateBackoff returns exponential backoff with jitter.
// Base delay is doubled each attempt, with random jitter up to 25%.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	// Jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
// Returns the context error when cancelled so retry loops can abort.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
