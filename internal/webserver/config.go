package webserver

import "time"

// Config tunes the public HTTP surface, loaded from the environment.
type Config struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Per-client quota for the callback endpoint.
	ClientLimit  int           `env:"CALLBACK_CLIENT_LIMIT" envDefault:"5"`
	ClientWindow time.Duration `env:"CALLBACK_CLIENT_WINDOW" envDefault:"1m"`

	// Minimum spacing between callback requests across all clients, to
	// keep retry storms away from the provider's token endpoint.
	GlobalSpacing time.Duration `env:"CALLBACK_GLOBAL_SPACING" envDefault:"1s"`

	// How long the handler waits for the dispatcher to pick the job up.
	// This bounds scheduling visibility only, never job completion.
	SchedulingWait time.Duration `env:"CALLBACK_SCHEDULING_WAIT" envDefault:"500ms"`
}
