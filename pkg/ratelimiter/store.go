package ratelimiter

import (
	"context"
	"time"
)

// Store holds token bucket state per key. The callback endpoint runs on
// the in-memory implementation; the interface exists so tests can inject
// deterministic clocks and failures.
type Store interface {
	// ConsumeTokens takes tokens from the key's bucket, refilling first
	// for the time elapsed since the last call. A negative remaining
	// count means the request must be denied; resetAt is when the next
	// refill lands.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset drops the bucket for the key, restoring full capacity.
	Reset(ctx context.Context, key string) error
}
