// Package totp implements RFC 6238 time-based one-time passwords for the
// manual verification flow: secret generation, otpauth provisioning URIs
// for authenticator apps, and code validation with a one-window drift
// allowance.
package totp
