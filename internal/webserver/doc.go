// Package webserver exposes the bot's public HTTP surface: a liveness
// page, a health endpoint and the OAuth callback.
//
// The callback handler runs on arbitrary HTTP worker goroutines, but role
// mutation and Discord API calls belong on the bot's single dispatcher.
// The handler therefore submits the resolution as a job and waits only
// briefly, long enough to surface scheduling failures, before telling the
// browser it can close the tab. Per-client and global rate limits shield
// the identity provider's token endpoint from hammering retries.
package webserver
