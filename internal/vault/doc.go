// Package vault holds verified users' provider credentials in memory,
// encrypted at rest in the process heap.
//
// Access and refresh tokens (and, for manual logins, email/password pairs)
// are sealed with AES-GCM before being stored and opened again on read, so
// a heap dump or stray debug log of the store never exposes raw secrets.
// The vault is intentionally non-durable: credentials vanish on restart
// and users simply verify again.
package vault
