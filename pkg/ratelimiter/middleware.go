package ratelimiter

import (
	"net/http"
	"strconv"
)

// globalKey is the shared bucket key used for the cross-client limiter.
const globalKey = "__global__"

// KeyFunc extracts a rate limit key from the request.
type KeyFunc func(r *http.Request) string

// Middleware creates an HTTP middleware that enforces a per-key quota.
// The keyFunc typically extracts the client address.
func Middleware(tb *Bucket, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := tb.Allow(r.Context(), keyFunc(r))
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GlobalMiddleware enforces a minimum spacing between requests across all
// clients by running every request through one shared single-token bucket.
// It exists to protect the identity provider's token endpoint from bursts
// regardless of how many distinct clients are retrying.
func GlobalMiddleware(tb *Bucket) func(http.Handler) http.Handler {
	return Middleware(tb, func(*http.Request) string { return globalKey })
}
