package settings

import "errors"

var (
	// ErrLoadFailed is returned when the settings file cannot be read or parsed.
	ErrLoadFailed = errors.New("settings: failed to load settings file")
	// ErrSaveFailed is returned when a mutation cannot be persisted to disk.
	ErrSaveFailed = errors.New("settings: failed to save settings file")
	// ErrInvalidPath is returned when a dot path is empty or traverses a non-map value.
	ErrInvalidPath = errors.New("settings: invalid settings path")
)
