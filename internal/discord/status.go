package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/flipperbot/internal/monitoring"
	"github.com/dmitrymomot/flipperbot/internal/settings"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

const defaultStatusInterval = time.Minute

// StatusReporter keeps a status dashboard embed up to date in the
// configured status channel, editing the same message in place rather
// than flooding the channel.
type StatusReporter struct {
	gw       Gateway
	settings *settings.Store
	monitor  *monitoring.Monitor
	interval time.Duration
	log      *slog.Logger

	lastMessageID string
}

// StatusOption configures a StatusReporter.
type StatusOption func(*StatusReporter)

// WithStatusInterval sets the refresh interval. Panics if not positive.
func WithStatusInterval(d time.Duration) StatusOption {
	if d <= 0 {
		panic("discord: status interval must be positive")
	}
	return func(r *StatusReporter) { r.interval = d }
}

// WithStatusLogger sets the logger.
func WithStatusLogger(log *slog.Logger) StatusOption {
	return func(r *StatusReporter) { r.log = log }
}

// NewStatusReporter creates a status dashboard updater.
func NewStatusReporter(gw Gateway, store *settings.Store, monitor *monitoring.Monitor, opts ...StatusOption) (*StatusReporter, error) {
	if gw == nil || store == nil || monitor == nil {
		return nil, ErrMissingDependency
	}
	r := &StatusReporter{
		gw:       gw,
		settings: store,
		monitor:  monitor,
		interval: defaultStatusInterval,
		log:      logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run publishes immediately and then on every tick until canceled.
func (r *StatusReporter) Run(ctx context.Context) {
	r.Publish(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Publish(ctx)
		}
	}
}

// Publish sends or edits the status embed. A missing status channel
// disables reporting silently.
func (r *StatusReporter) Publish(ctx context.Context) {
	channelID := r.settings.GetString("channels.notifications.status", "")
	if channelID == "" {
		return
	}

	embed := statusEmbed(r.monitor.Snapshot())

	if r.lastMessageID != "" {
		if _, err := r.gw.ChannelMessageEditEmbed(channelID, r.lastMessageID, embed); err == nil {
			return
		}
		// Message was deleted or the channel changed; fall through and resend.
		r.lastMessageID = ""
	}

	msg, err := r.gw.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		r.log.WarnContext(ctx, "status update undeliverable",
			logger.Event("discord.status_failed"),
			slog.String("channel_id", channelID),
			logger.Error(err),
		)
		return
	}
	r.lastMessageID = msg.ID
}

func statusEmbed(status monitoring.Status) *discordgo.MessageEmbed {
	color := colorSuccess
	if status.LastError != "" {
		color = colorError
	}

	names := make([]string, 0, len(status.APIStatus))
	for name := range status.APIStatus {
		names = append(names, name)
	}
	sort.Strings(names)

	var apiLines []string
	for _, name := range names {
		mark := "🔴"
		if status.APIStatus[name] {
			mark = "🟢"
		}
		apiLines = append(apiLines, fmt.Sprintf("%s: %s", name, mark))
	}
	apiText := strings.Join(apiLines, "\n")
	if apiText == "" {
		apiText = "No API checks yet"
	}

	embed := &discordgo.MessageEmbed{
		Title:     "🤖 Bot Status Dashboard",
		Color:     color,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "⏱️ Uptime", Value: status.Uptime.Truncate(time.Second).String(), Inline: true},
			{Name: "❌ Errors", Value: fmt.Sprintf("%d", status.ErrorCount), Inline: true},
			{
				Name: "💻 Runtime",
				Value: fmt.Sprintf("Goroutines: %d\nHeap: %.1f MiB",
					status.Goroutines, float64(status.HeapBytes)/(1<<20)),
			},
			{Name: "🌐 API Status", Value: apiText},
		},
	}
	if status.LastError != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Last Error",
			Value: fmt.Sprintf("```%s```", status.LastError),
		})
	}
	return embed
}
