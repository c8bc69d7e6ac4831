package chat

import (
	"math/rand/v2"
	"time"
)

const maxBackoff = 30 * time.Second

// Backoff returns the wait before retry number attempt (1-based): base
// doubled per prior retry, capped at 30s, with ±25% jitter.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift
	attempt = min(attempt, 30)

	backoff := base * time.Duration(1<<uint(attempt-1))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}

	if half := int64(backoff) / 2; half > 0 {
		backoff += time.Duration(rand.Int64N(half)) - backoff/4
	}
	return backoff
}
