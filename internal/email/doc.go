// Package email delivers OTP enrollment emails.
//
// The Postmark-backed sender is used in production; the log sender writes
// the message to the log instead and serves local development, where no
// Postmark credentials exist.
package email
