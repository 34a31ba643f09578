// Package flips watches the Hypixel Skyblock auction house for resale
// opportunities.
//
// The monitor polls the auction endpoint on a fixed interval, runs each
// listing through a profit heuristic and pushes fresh opportunities to a
// notifier. Opportunities are deduplicated by auction id so a listing is
// announced at most once per process lifetime.
package flips
