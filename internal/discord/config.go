package discord

// Config holds the bot's Discord-facing settings, loaded from the environment.
type Config struct {
	BotToken string `env:"BOT_TOKEN,required"`

	VerifiedRoleName   string `env:"VERIFIED_ROLE_NAME" envDefault:"Verified"`
	UnverifiedRoleName string `env:"UNVERIFIED_ROLE_NAME" envDefault:"Unverified"`

	// AdminChannelID receives verification audit embeds. Guild-specific
	// notification channels from the settings store take precedence.
	AdminChannelID string `env:"ADMIN_CHANNEL_ID"`

	// CallbackURL is the public callback address users confirm their
	// one-time codes against. Shown in the enrollment DM.
	CallbackURL string `env:"CALLBACK_PUBLIC_URL" envDefault:"http://localhost:8080/callback"`
}
