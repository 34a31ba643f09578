package totp

import "errors"

var (
	ErrSecretGeneration   = errors.New("totp: failed to generate secret key")
	ErrInvalidSecret      = errors.New("totp: invalid secret key")
	ErrInvalidCode        = errors.New("totp: code must be six digits")
	ErrMissingAccountName = errors.New("totp: account name and issuer are required")
)
