package vault

import "errors"

var (
	// ErrNotFound is returned when no credentials are stored for the user.
	ErrNotFound = errors.New("vault: credentials not found")
	// ErrSealFailed is returned when credentials cannot be encrypted.
	ErrSealFailed = errors.New("vault: failed to seal credentials")
	// ErrOpenFailed is returned when stored credentials cannot be decrypted.
	ErrOpenFailed = errors.New("vault: failed to open credentials")
	// ErrEmptyUserID is returned when a user id is missing.
	ErrEmptyUserID = errors.New("vault: empty user id")
)
