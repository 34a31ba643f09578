package discord

import "github.com/bwmarrin/discordgo"

// Gateway is the slice of the Discord API the package consumes. It exists
// so role mutation and notifications can be exercised against a fake in
// tests; the only production implementation wraps *discordgo.Session.
type Gateway interface {
	GuildIDs() []string
	GuildRoles(guildID string) ([]*discordgo.Role, error)
	GuildRoleCreate(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error)
	GuildMember(guildID, userID string) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string) error
	GuildMemberRoleRemove(guildID, userID, roleID string) error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	DirectMessageEmbed(userID string, embed *discordgo.MessageEmbed) error
	DirectMessageComplex(userID string, data *discordgo.MessageSend) error
}

type sessionGateway struct {
	s *discordgo.Session
}

// NewGateway wraps a live discordgo session.
func NewGateway(s *discordgo.Session) Gateway {
	return &sessionGateway{s: s}
}

func (g *sessionGateway) GuildIDs() []string {
	g.s.State.RLock()
	defer g.s.State.RUnlock()

	ids := make([]string, 0, len(g.s.State.Guilds))
	for _, guild := range g.s.State.Guilds {
		ids = append(ids, guild.ID)
	}
	return ids
}

func (g *sessionGateway) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return g.s.GuildRoles(guildID)
}

func (g *sessionGateway) GuildRoleCreate(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	return g.s.GuildRoleCreate(guildID, params)
}

func (g *sessionGateway) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	// Prefer the gateway state cache; fall back to the REST API.
	if member, err := g.s.State.Member(guildID, userID); err == nil {
		return member, nil
	}
	return g.s.GuildMember(guildID, userID)
}

func (g *sessionGateway) GuildMemberRoleAdd(guildID, userID, roleID string) error {
	return g.s.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (g *sessionGateway) GuildMemberRoleRemove(guildID, userID, roleID string) error {
	return g.s.GuildMemberRoleRemove(guildID, userID, roleID)
}

func (g *sessionGateway) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return g.s.ChannelMessageSendEmbed(channelID, embed)
}

func (g *sessionGateway) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return g.s.ChannelMessageSendComplex(channelID, data)
}

func (g *sessionGateway) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return g.s.ChannelMessageEditEmbed(channelID, messageID, embed)
}

func (g *sessionGateway) DirectMessageEmbed(userID string, embed *discordgo.MessageEmbed) error {
	channel, err := g.s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = g.s.ChannelMessageSendEmbed(channel.ID, embed)
	return err
}

func (g *sessionGateway) DirectMessageComplex(userID string, data *discordgo.MessageSend) error {
	channel, err := g.s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = g.s.ChannelMessageSendComplex(channel.ID, data)
	return err
}
