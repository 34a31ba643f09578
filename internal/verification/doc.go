// Package verification orchestrates the account verification state machine.
//
// An attempt moves through Initiated, AwaitingExternalCallback and one of
// the terminal states Resolved, Expired or Rejected. Starting an attempt
// registers a pending entry and hands the user an authorization URL (OAuth)
// or a TOTP enrollment package (OTP). The callback side consumes the pending
// entry, exchanges the authorization code with the identity provider,
// stores the resulting credentials, mutates Discord roles and notifies the
// admin channel.
//
// Unknown, replayed and expired correlation tokens all produce the same
// outcome so a caller probing the endpoint cannot tell which case it hit.
// No operation retries; a failed attempt requires the user to start over,
// which naturally invalidates the old correlation token.
package verification
