// Package settings provides a YAML-backed runtime settings store for the bot.
//
// Unlike pkg/config, which loads immutable process configuration from the
// environment, this store holds operator-editable state: access lists,
// per-guild notification channels, embed colors and flip detection tuning.
// Values are addressed with dot paths and every mutation is persisted back
// to the settings file.
//
// Usage:
//
//	store, err := settings.Open("settings.yaml")
//	if err != nil {
//		return err
//	}
//
//	if store.IsAdmin(userID) {
//		_ = store.Set("flip_settings.min_profit", 150000)
//	}
package settings
