package registry

import "errors"

var (
	// ErrTokenGeneration is returned when the system entropy source fails.
	ErrTokenGeneration = errors.New("registry: failed to generate correlation token")
	// ErrEmptyUserID is returned when an attempt is started without a user.
	ErrEmptyUserID = errors.New("registry: empty user id")
)
