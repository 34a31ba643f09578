// Package registry tracks in-flight verification attempts.
//
// Each attempt is keyed by an opaque correlation token handed to the
// identity provider as OAuth state. Entries are consumed exactly once:
// resolving a token removes it, so a replayed callback finds nothing.
// Entries older than the TTL are rejected and discarded lazily at
// resolution time. The registry is bounded; inserts past the capacity
// evict expired entries first and the oldest entry as a last resort.
//
// The registry is process-local and non-durable: a restart drops all
// in-flight attempts, which simply forces users to start over.
package registry
