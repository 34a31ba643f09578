package email

import "errors"

var (
	// ErrInvalidConfig is returned when the sender configuration is incomplete.
	ErrInvalidConfig = errors.New("email: invalid configuration")
	// ErrSendFailed is returned when the provider refuses or fails delivery.
	ErrSendFailed = errors.New("email: failed to send")
	// ErrInvalidRecipient is returned when the recipient address is not an email.
	ErrInvalidRecipient = errors.New("email: invalid recipient address")
)
