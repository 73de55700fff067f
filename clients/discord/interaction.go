package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"nrgbot/clients"
	"nrgbot/models"
)

// discordInteraction wraps one inbound application command or component click.
// mu serializes reply calls so the reply state transitions stay ordered.
type discordInteraction struct {
	session     Session
	interaction *discordgo.Interaction

	user        models.PlatformUser
	channel     models.PlatformChannel
	commandName string
	options     models.CommandOptions

	mu       sync.Mutex
	deferred bool
	replied  bool
}

func newDiscordInteraction(session Session, i *discordgo.Interaction) *discordInteraction {
	di := &discordInteraction{
		session:     session,
		interaction: i,
		options:     models.CommandOptions{},
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		di.user = toPlatformUser(i.Member.User, i.Member)
	case i.User != nil:
		di.user = toPlatformUser(i.User, nil)
	default:
		di.user = models.PlatformUser{Platform: models.PlatformDiscord}
	}

	channelType := models.ChannelTypeText
	if i.GuildID == "" {
		channelType = models.ChannelTypeDM
	}
	di.channel = models.PlatformChannel{
		ID:       i.ChannelID,
		Type:     channelType,
		Platform: models.PlatformDiscord,
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		di.commandName = data.Name
		di.options = parseCommandOptions(data.Options)
	case discordgo.InteractionMessageComponent:
		di.commandName = i.MessageComponentData().CustomID
	}

	return di
}

func (d *discordInteraction) User() models.PlatformUser       { return d.user }
func (d *discordInteraction) Channel() models.PlatformChannel { return d.channel }
func (d *discordInteraction) CommandName() string             { return d.commandName }
func (d *discordInteraction) Options() models.CommandOptions  { return d.options }
func (d *discordInteraction) Platform() models.Platform       { return models.PlatformDiscord }

func (d *discordInteraction) GuildID() mo.Option[string] {
	if d.interaction.GuildID == "" {
		return mo.None[string]()
	}
	return mo.Some(d.interaction.GuildID)
}

func (d *discordInteraction) Replied() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deferred || d.replied
}

// Reply sends the first response. After a defer it fills in the deferred
// response; after a completed reply it becomes a follow-up.
func (d *discordInteraction) Reply(ctx context.Context, msg models.PlatformMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.replied {
		return d.followUp(ctx, msg)
	}

	if d.deferred {
		if _, err := d.session.InteractionResponseEdit(
			d.interaction,
			toWebhookEdit(msg),
			discordgo.WithContext(ctx),
		); err != nil {
			return fmt.Errorf("failed to edit deferred interaction response: %w", err)
		}
		d.replied = true
		return nil
	}

	err := d.session.InteractionRespond(d.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: toResponseData(msg),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to respond to interaction: %w", err)
	}
	d.replied = true
	return nil
}

func (d *discordInteraction) DeferReply(ctx context.Context, ephemeral bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deferred || d.replied {
		return nil
	}

	err := d.session.InteractionRespond(d.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: messageFlags(ephemeral)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to defer interaction response: %w", err)
	}
	d.deferred = true
	return nil
}

func (d *discordInteraction) EditReply(ctx context.Context, msg models.PlatformMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.deferred && !d.replied {
		return clients.ErrNoReply
	}

	if _, err := d.session.InteractionResponseEdit(
		d.interaction,
		toWebhookEdit(msg),
		discordgo.WithContext(ctx),
	); err != nil {
		return fmt.Errorf("failed to edit interaction response: %w", err)
	}
	d.replied = true
	return nil
}

func (d *discordInteraction) FollowUp(ctx context.Context, msg models.PlatformMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.deferred && !d.replied {
		return clients.ErrNoReply
	}
	return d.followUp(ctx, msg)
}

func (d *discordInteraction) followUp(ctx context.Context, msg models.PlatformMessage) error {
	if _, err := d.session.FollowupMessageCreate(
		d.interaction,
		true,
		toWebhookParams(msg),
		discordgo.WithContext(ctx),
	); err != nil {
		return fmt.Errorf("failed to send follow-up message: %w", err)
	}
	return nil
}
