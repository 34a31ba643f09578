package flips

import "errors"

var (
	// ErrMissingAPIKey is returned when the Hypixel API key is not configured.
	ErrMissingAPIKey = errors.New("flips: missing Hypixel API key")
	// ErrRequestFailed is returned when the Hypixel API cannot be reached.
	ErrRequestFailed = errors.New("flips: Hypixel API request failed")
	// ErrUnexpectedStatus is returned on a non-200 response from the API.
	ErrUnexpectedStatus = errors.New("flips: unexpected Hypixel API status")
	// ErrMissingDependency is returned when a required collaborator is nil.
	ErrMissingDependency = errors.New("flips: missing dependency")
)
