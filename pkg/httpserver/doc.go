// Package httpserver wraps net/http's server with sane timeouts, graceful
// shutdown on context cancellation or SIGINT/SIGTERM, and optional logging.
// The callback web server runs on it; the bot process shares one lifecycle
// context between this server and the Discord session.
package httpserver
