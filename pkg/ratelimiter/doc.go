// Package ratelimiter implements a token bucket rate limiter with pluggable
// storage and net/http middleware.
//
// The callback endpoint uses two layers: a per-client-address bucket (small
// quota per window) and a global single-token bucket that enforces minimum
// spacing between requests across all clients. Both return HTTP 429 with a
// Retry-After header when exceeded, which keeps misbehaving clients from
// hammering the identity provider's token endpoint through us.
//
//	store := ratelimiter.NewMemoryStore()
//	perIP, _ := ratelimiter.NewBucket(store, ratelimiter.Config{
//	    Capacity: 5, RefillRate: 5, RefillInterval: time.Minute,
//	})
//	global, _ := ratelimiter.NewBucket(store, ratelimiter.Config{
//	    Capacity: 1, RefillRate: 1, RefillInterval: 2 * time.Second,
//	})
//	r.Use(ratelimiter.Middleware(perIP, clientip.GetIP))
//	r.Use(ratelimiter.GlobalMiddleware(global))
package ratelimiter
