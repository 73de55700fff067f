package discord

import (
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"nrgbot/models"
)

const (
	maxEmbedFields    = 25
	maxButtonsPerRow  = 5
	maxComponentsRows = 5
)

func toApplicationCommands(definitions []models.CommandDefinition) []*discordgo.ApplicationCommand {
	commands := make([]*discordgo.ApplicationCommand, 0, len(definitions))
	for _, def := range definitions {
		commands = append(commands, toApplicationCommand(def))
	}
	return commands
}

func toApplicationCommand(def models.CommandDefinition) *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
	}

	if len(def.Subcommands) == 0 {
		cmd.Options = toCommandOptions(def.Options)
		return cmd
	}

	for _, sub := range def.Subcommands {
		cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        sub.Name,
			Description: sub.Description,
			Options:     toCommandOptions(sub.Options),
		})
	}
	return cmd
}

func toCommandOptions(options []models.CommandOption) []*discordgo.ApplicationCommandOption {
	var out []*discordgo.ApplicationCommandOption
	for _, opt := range options {
		option := &discordgo.ApplicationCommandOption{
			Type:        toOptionType(opt.Type),
			Name:        opt.Name,
			Description: opt.Description,
			Required:    opt.Required,
		}
		for _, choice := range opt.Choices {
			option.Choices = append(option.Choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  choice.Name,
				Value: choiceValue(opt.Type, choice.Value),
			})
		}
		out = append(out, option)
	}
	return out
}

func toOptionType(t models.OptionType) discordgo.ApplicationCommandOptionType {
	switch t {
	case models.OptionTypeNumber:
		return discordgo.ApplicationCommandOptionNumber
	case models.OptionTypeBoolean:
		return discordgo.ApplicationCommandOptionBoolean
	case models.OptionTypeUser:
		return discordgo.ApplicationCommandOptionUser
	case models.OptionTypeChannel:
		return discordgo.ApplicationCommandOptionChannel
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

func choiceValue(t models.OptionType, raw string) any {
	if t == models.OptionTypeNumber {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

// parseCommandOptions flattens the option tree, surfacing the selected
// subcommand under models.SubcommandOptionKey.
func parseCommandOptions(options []*discordgo.ApplicationCommandInteractionDataOption) models.CommandOptions {
	parsed := models.CommandOptions{}
	flattenOptions(parsed, options)
	return parsed
}

func flattenOptions(parsed models.CommandOptions, options []*discordgo.ApplicationCommandInteractionDataOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommand:
			parsed[models.SubcommandOptionKey] = models.StringValue(opt.Name)
			flattenOptions(parsed, opt.Options)
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			flattenOptions(parsed, opt.Options)
		case discordgo.ApplicationCommandOptionString:
			parsed[opt.Name] = models.StringValue(opt.StringValue())
		case discordgo.ApplicationCommandOptionInteger:
			parsed[opt.Name] = models.NumberValue(float64(opt.IntValue()))
		case discordgo.ApplicationCommandOptionNumber:
			parsed[opt.Name] = models.NumberValue(opt.FloatValue())
		case discordgo.ApplicationCommandOptionBoolean:
			parsed[opt.Name] = models.BoolValue(opt.BoolValue())
		case discordgo.ApplicationCommandOptionUser:
			if id, ok := opt.Value.(string); ok {
				parsed[opt.Name] = models.UserValue(id)
			}
		case discordgo.ApplicationCommandOptionChannel:
			if id, ok := opt.Value.(string); ok {
				parsed[opt.Name] = models.ChannelValue(id)
			}
		}
	}
}

func toEmbeds(embeds []models.PlatformEmbed) []*discordgo.MessageEmbed {
	if len(embeds) > models.MaxEmbedsPerMessage {
		embeds = embeds[:models.MaxEmbedsPerMessage]
	}

	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		embed := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color.OrElse(0),
		}
		fields := e.Fields
		if len(fields) > maxEmbedFields {
			fields = fields[:maxEmbedFields]
		}
		for _, f := range fields {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   f.Name,
				Value:  f.Value,
				Inline: f.Inline,
			})
		}
		if url, ok := e.Thumbnail.Get(); ok {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
		}
		if url, ok := e.Image.Get(); ok {
			embed.Image = &discordgo.MessageEmbedImage{URL: url}
		}
		if footer, ok := e.Footer.Get(); ok {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
		}
		if ts, ok := e.Timestamp.Get(); ok {
			embed.Timestamp = ts.UTC().Format(time.RFC3339)
		}
		out = append(out, embed)
	}
	return out
}

// toComponents lays out action buttons first and link buttons after them, never
// mixing both kinds in one row.
func toComponents(msg models.PlatformMessage) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	rows = appendButtonRows(rows, msg.ActionButtons())
	rows = appendButtonRows(rows, msg.LinkButtons())
	if len(rows) > maxComponentsRows {
		rows = rows[:maxComponentsRows]
	}
	return rows
}

func appendButtonRows(rows []discordgo.MessageComponent, buttons []models.PlatformButton) []discordgo.MessageComponent {
	for start := 0; start < len(buttons); start += maxButtonsPerRow {
		end := min(start+maxButtonsPerRow, len(buttons))
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, toButton(b))
		}
		rows = append(rows, row)
	}
	return rows
}

func toButton(b models.PlatformButton) discordgo.Button {
	if b.IsLink() {
		return discordgo.Button{
			Label:    b.Label,
			Style:    discordgo.LinkButton,
			URL:      b.URL,
			Disabled: b.Disabled,
		}
	}
	return discordgo.Button{
		Label:    b.Label,
		Style:    toButtonStyle(b.Style),
		CustomID: b.ID,
		Disabled: b.Disabled,
	}
}

func toButtonStyle(style models.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case models.ButtonStyleSecondary:
		return discordgo.SecondaryButton
	case models.ButtonStyleSuccess:
		return discordgo.SuccessButton
	case models.ButtonStyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

func messageFlags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func toResponseData(msg models.PlatformMessage) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg),
		Flags:      messageFlags(msg.Ephemeral),
	}
}

func toWebhookEdit(msg models.PlatformMessage) *discordgo.WebhookEdit {
	content := msg.Content
	embeds := toEmbeds(msg.Embeds)
	components := toComponents(msg)
	return &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}
}

func toWebhookParams(msg models.PlatformMessage) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg),
		Flags:      messageFlags(msg.Ephemeral),
	}
}

func toMessageSend(msg models.PlatformMessage) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg),
	}
}

func toPlatformUser(user *discordgo.User, member *discordgo.Member) models.PlatformUser {
	u := models.PlatformUser{
		ID:       user.ID,
		Username: user.Username,
		Platform: models.PlatformDiscord,
	}
	if member != nil && member.Nick != "" {
		u.DisplayName = mo.Some(member.Nick)
	}
	if user.Avatar != "" {
		u.AvatarURL = mo.Some(user.AvatarURL(""))
	}
	return u
}

func toPlatformChannel(channel *discordgo.Channel) models.PlatformChannel {
	return models.PlatformChannel{
		ID:       channel.ID,
		Name:     channel.Name,
		Type:     toChannelType(channel.Type),
		Platform: models.PlatformDiscord,
	}
}

func toChannelType(t discordgo.ChannelType) models.ChannelType {
	switch t {
	case discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM:
		return models.ChannelTypeDM
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return models.ChannelTypeVoice
	default:
		return models.ChannelTypeText
	}
}

// acceptsText reports whether messages can be posted to the channel type
func acceptsText(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	default:
		return false
	}
}

func toGuildRole(guildID string, role *discordgo.Role) *models.GuildRole {
	return &models.GuildRole{
		ID:       role.ID,
		GuildID:  guildID,
		Name:     role.Name,
		Position: role.Position,
		Managed:  role.Managed,
		Color:    role.Color,
	}
}

func toGuildMember(guildID string, member *discordgo.Member) *models.GuildMember {
	m := &models.GuildMember{
		GuildID: guildID,
		RoleIDs: append([]string(nil), member.Roles...),
	}
	if member.User != nil {
		m.UserID = member.User.ID
		m.Username = member.User.Username
	}
	return m
}
