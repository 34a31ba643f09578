package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/flipperbot/internal/settings"
	"github.com/dmitrymomot/flipperbot/internal/verification"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

// NewSession creates a gateway session with the intents the bot needs.
// The session is not opened; the Bot owns its lifecycle.
func NewSession(cfg Config) (*discordgo.Session, error) {
	if cfg.BotToken == "" {
		return nil, ErrMissingToken
	}
	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages
	return s, nil
}

// Bot wires gateway events to the verification flow: it marks new members
// unverified, greets them with the Verify/Q&A buttons and answers button
// presses.
type Bot struct {
	session  *discordgo.Session
	cfg      Config
	settings *settings.Store
	verifier *verification.Service
	mutator  *Mutator
	log      *slog.Logger
}

// BotOption configures a Bot.
type BotOption func(*Bot)

// WithBotLogger sets the logger.
func WithBotLogger(log *slog.Logger) BotOption {
	return func(b *Bot) { b.log = log }
}

// NewBot registers the event handlers on the session.
func NewBot(session *discordgo.Session, cfg Config, store *settings.Store, verifier *verification.Service, mutator *Mutator, opts ...BotOption) (*Bot, error) {
	if session == nil || store == nil || verifier == nil || mutator == nil {
		return nil, ErrMissingDependency
	}
	b := &Bot{
		session:  session,
		cfg:      cfg,
		settings: store,
		verifier: verifier,
		mutator:  mutator,
		log:      logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(b)
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildMemberAdd)
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	return b.session.Open()
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.log.Warn("gateway close failed", logger.Error(err))
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("connected to Discord",
		logger.Event("discord.ready"),
		slog.String("username", r.User.Username),
		slog.Int("guilds", len(r.Guilds)),
	)

	if err := s.UpdateWatchStatus(0, "for flips"); err != nil {
		b.log.Debug("failed to set presence", logger.Error(err))
	}
}

// onGuildMemberAdd marks the newcomer unverified and posts the welcome
// message with the Verify and Q&A buttons.
func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	ctx := context.Background()

	if err := b.mutator.MarkUnverified(ctx, m.GuildID, m.User.ID); err != nil {
		b.log.Warn("failed to mark member unverified",
			logger.Event("discord.member_join"),
			logger.GuildID(m.GuildID),
			logger.UserID(m.User.ID),
			logger.Error(err),
		)
	}

	channelID := b.settings.GetString("channels.welcome."+m.GuildID, "")
	if channelID == "" {
		channelID, _ = b.settings.NotificationChannel(m.GuildID)
	}
	if channelID == "" {
		return
	}
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embed:      welcomeEmbed(),
		Components: welcomeButtons(),
	})
	if err != nil {
		b.log.Warn("failed to post welcome message",
			logger.Event("discord.member_join"),
			logger.GuildID(m.GuildID),
			logger.Error(err),
		)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	switch i.MessageComponentData().CustomID {
	case verifyButtonID:
		b.handleVerifyButton(s, i)
	case qaButtonID:
		b.respondEphemeral(s, i, qaEmbed())
	}
}

// handleVerifyButton starts an OAuth attempt for the pressing user and
// answers with the login link, visible only to them.
func (b *Bot) handleVerifyButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		return
	}

	if !b.settings.CanUseBot(userID) {
		b.respondEphemeral(s, i, verificationErrorEmbed())
		return
	}

	result, err := b.verifier.StartOAuth(context.Background(), userID)
	if err != nil {
		b.log.Error("failed to start verification",
			logger.Event("discord.verify_button"),
			logger.UserID(userID),
			logger.Error(err),
		)
		b.respondEphemeral(s, i, verificationErrorEmbed())
		return
	}

	b.respondEphemeral(s, i, verificationInstructionsEmbed(result.AuthURL))
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn("interaction response failed", logger.Error(err))
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
