package discord

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/flipperbot/internal/flips"
	"github.com/dmitrymomot/flipperbot/internal/settings"
	"github.com/dmitrymomot/flipperbot/internal/verification"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

// Notifier posts verification audit events and flip announcements to the
// guilds' notification channels, and DMs users their two-factor enrollment
// material. Delivery is best effort throughout; a missing or unwritable
// channel is logged and skipped.
type Notifier struct {
	gw             Gateway
	settings       *settings.Store
	adminChannelID string
	callbackURL    string
	log            *slog.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithNotifierLogger sets the logger.
func WithNotifierLogger(log *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.log = log }
}

// NewNotifier creates a notifier. Guild-specific channels from the
// settings store win over the configured admin channel.
func NewNotifier(gw Gateway, store *settings.Store, cfg Config, opts ...NotifierOption) (*Notifier, error) {
	if gw == nil || store == nil {
		return nil, ErrMissingDependency
	}
	n := &Notifier{
		gw:             gw,
		settings:       store,
		adminChannelID: cfg.AdminChannelID,
		callbackURL:    cfg.CallbackURL,
		log:            logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// channels returns the distinct notification channels across all guilds.
func (n *Notifier) channels() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, guildID := range n.gw.GuildIDs() {
		if ch, ok := n.settings.NotificationChannel(guildID); ok {
			add(ch)
		}
	}
	if len(out) == 0 {
		add(n.adminChannelID)
	}
	return out
}

// NotifyVerification posts the audit embed for a completed verification.
func (n *Notifier) NotifyVerification(ctx context.Context, event verification.AuditEvent) {
	embed := auditEmbed(event)
	for _, channelID := range n.channels() {
		if _, err := n.gw.ChannelMessageSendEmbed(channelID, embed); err != nil {
			n.log.WarnContext(ctx, "audit notification undeliverable",
				logger.Event("discord.audit_failed"),
				slog.String("channel_id", channelID),
				logger.Error(err),
			)
		}
	}
}

// DeliverOTPEnrollment DMs the user their two-factor setup material: the
// QR code as an attachment plus the confirmation link for the flow.
func (n *Notifier) DeliverOTPEnrollment(ctx context.Context, userID string, enrollment verification.StartOTPResult) error {
	confirmURL := fmt.Sprintf("%s?state=%s&code=CODE", n.callbackURL, enrollment.FlowID)
	msg := &discordgo.MessageSend{
		Embed: otpEnrollmentEmbed(confirmURL),
		Files: []*discordgo.File{{
			Name:        "2fa-setup.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(enrollment.QRCode),
		}},
	}
	if err := n.gw.DirectMessageComplex(userID, msg); err != nil {
		n.log.WarnContext(ctx, "enrollment DM undeliverable",
			logger.Event("discord.enrollment_failed"),
			logger.UserID(userID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// NotifyFlip announces a flip opportunity with a Buy button.
func (n *Notifier) NotifyFlip(ctx context.Context, op flips.Opportunity) {
	msg := &discordgo.MessageSend{
		Embed: flipEmbed(op),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Buy Now",
						Style:    discordgo.SuccessButton,
						CustomID: "buy_" + op.AuctionID,
					},
				},
			},
		},
	}
	for _, channelID := range n.channels() {
		if _, err := n.gw.ChannelMessageSendComplex(channelID, msg); err != nil {
			n.log.WarnContext(ctx, "flip notification undeliverable",
				logger.Event("discord.flip_failed"),
				slog.String("channel_id", channelID),
				logger.Error(err),
			)
		}
	}
}
