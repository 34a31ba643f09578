// Package config loads typed configuration structs from environment
// variables, with one-shot .env support for local development.
//
// Each component of the bot declares its own config struct with env tags and
// calls Load (or MustLoad for startup-critical settings). Parsed structs are
// cached per type, so repeated loads are cheap and consistent across
// goroutines.
//
//	type WebConfig struct {
//		Addr string `env:"CALLBACK_ADDR" envDefault:":8080"`
//	}
//
//	var cfg WebConfig
//	config.MustLoad(&cfg)
//
// Mutable bot settings (admin lists, channel ids, embed colors) are not
// handled here; those live in the YAML-backed settings store.
package config
