package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Session is the subset of *discordgo.Session the client talks to
type Session interface {
	Open() error
	Close() error
	AddHandler(handler any) func()

	BotUserID() string
	GuildIDs() []string

	ApplicationCommandBulkOverwrite(
		appID, guildID string,
		commands []*discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) ([]*discordgo.ApplicationCommand, error)

	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
	InteractionResponseEdit(
		interaction *discordgo.Interaction,
		newresp *discordgo.WebhookEdit,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	FollowupMessageCreate(
		interaction *discordgo.Interaction,
		wait bool,
		data *discordgo.WebhookParams,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	ChannelMessageSendComplex(
		channelID string,
		data *discordgo.MessageSend,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)

	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMembers(guildID, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildMemberEdit(
		guildID, userID string,
		data *discordgo.GuildMemberParams,
		options ...discordgo.RequestOption,
	) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
}

// sessionAdapter exposes the gateway state of a real discordgo session
type sessionAdapter struct {
	*discordgo.Session
}

func (a *sessionAdapter) AddHandler(handler any) func() {
	return a.Session.AddHandler(handler)
}

func (a *sessionAdapter) BotUserID() string {
	if a.State == nil || a.State.User == nil {
		return ""
	}
	return a.State.User.ID
}

func (a *sessionAdapter) GuildIDs() []string {
	if a.State == nil {
		return nil
	}
	a.State.RLock()
	defer a.State.RUnlock()

	ids := make([]string, 0, len(a.State.Guilds))
	for _, guild := range a.State.Guilds {
		if guild != nil && guild.ID != "" {
			ids = append(ids, guild.ID)
		}
	}
	return ids
}
