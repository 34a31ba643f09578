// Package msauth implements the Microsoft identity platform client used for
// account verification.
//
// The client builds authorization URLs for the OAuth2 authorization code
// flow and exchanges callback codes for tokens. After a successful exchange
// it resolves the account's display name and email with a layered fallback:
// ID token claims first, then the Microsoft Graph profile endpoint, and
// finally placeholder values so that verification never fails on a missing
// profile.
//
// Usage:
//
//	client, err := msauth.New(cfg)
//	if err != nil {
//		return err
//	}
//
//	url := client.AuthCodeURL(state)
//	// ... user authorizes and the provider redirects back ...
//	identity, err := client.ExchangeCode(ctx, code)
package msauth
