// Package secrets provides AES-256-GCM encryption for credential material
// held in memory by the bot, such as the access and refresh tokens stored
// after a successful Microsoft login.
//
// The master key (from configuration) is never used directly; a working key
// is derived with HKDF-SHA256 under a fixed domain-separation label, so the
// same master key could serve other purposes later without nonce or key
// reuse concerns.
//
// Ciphertexts are nonce-prefixed and base64-encoded in the string variants.
package secrets
