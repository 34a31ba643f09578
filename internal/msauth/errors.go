package msauth

import "errors"

var (
	// ErrMissingCredentials is returned by New when the client ID or secret is empty.
	ErrMissingCredentials = errors.New("msauth: missing client credentials")
	// ErrEmptyCode is returned when an exchange is attempted with an empty authorization code.
	ErrEmptyCode = errors.New("msauth: empty authorization code")
	// ErrProviderRejected is returned when the identity provider rejects the
	// authorization code, e.g. it is expired, reused or revoked.
	ErrProviderRejected = errors.New("msauth: provider rejected authorization code")
	// ErrNetwork is returned when the token endpoint cannot be reached.
	ErrNetwork = errors.New("msauth: token endpoint unreachable")
	// ErrMalformedResponse is returned when the token endpoint responds with
	// a payload that cannot be interpreted.
	ErrMalformedResponse = errors.New("msauth: malformed token response")
)
