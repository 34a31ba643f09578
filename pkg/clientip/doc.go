// Package clientip extracts the originating client address from HTTP
// requests, honoring common reverse-proxy headers.
//
// The result is used as the per-client key for rate limiting the OAuth
// callback endpoint. It must never be treated as an authenticated identity:
// forwarded headers are client-controlled on misconfigured deployments.
package clientip
