// Package monitoring tracks process health: reachability of the external
// APIs the bot depends on, a running error counter and basic runtime
// statistics. The bot surfaces the snapshot in a status embed; the HTTP
// health endpoint stays a plain liveness check and does not depend on it.
package monitoring
