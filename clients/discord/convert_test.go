package discord

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrgbot/models"
)

func TestToApplicationCommand(t *testing.T) {
	t.Run("nests subcommands with their options", func(t *testing.T) {
		def := models.CommandDefinition{
			Name:        "hacks",
			Description: "Browse hacks",
			Subcommands: []models.SubcommandDefinition{
				{
					Name:        "list",
					Description: "List hacks",
					Options: []models.CommandOption{
						{Name: "category", Description: "Filter", Type: models.OptionTypeString},
					},
				},
				{Name: "view", Description: "View a hack"},
			},
			Options: []models.CommandOption{{Name: "ignored", Type: models.OptionTypeString}},
		}

		cmd := toApplicationCommand(def)

		require.Len(t, cmd.Options, 2)
		assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, cmd.Options[0].Type)
		assert.Equal(t, "list", cmd.Options[0].Name)
		require.Len(t, cmd.Options[0].Options, 1)
		assert.Equal(t, "category", cmd.Options[0].Options[0].Name)
		assert.Equal(t, "view", cmd.Options[1].Name)
	})

	t.Run("maps top-level options with choices", func(t *testing.T) {
		def := models.CommandDefinition{
			Name: "limit",
			Options: []models.CommandOption{
				{
					Name:     "count",
					Type:     models.OptionTypeNumber,
					Required: true,
					Choices:  []models.OptionChoice{{Name: "five", Value: "5"}},
				},
			},
		}

		cmd := toApplicationCommand(def)

		require.Len(t, cmd.Options, 1)
		assert.Equal(t, discordgo.ApplicationCommandOptionNumber, cmd.Options[0].Type)
		assert.True(t, cmd.Options[0].Required)
		require.Len(t, cmd.Options[0].Choices, 1)
		assert.Equal(t, 5.0, cmd.Options[0].Choices[0].Value)
	})
}

func TestParseCommandOptions(t *testing.T) {
	t.Run("surfaces subcommand under reserved key", func(t *testing.T) {
		options := []*discordgo.ApplicationCommandInteractionDataOption{
			{
				Name: "list",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "category", Type: discordgo.ApplicationCommandOptionString, Value: "sleep"},
				},
			},
		}

		parsed := parseCommandOptions(options)

		assert.Equal(t, mo.Some("list"), parsed.Subcommand())
		assert.Equal(t, mo.Some("sleep"), parsed.GetString("category"))
	})

	t.Run("parses typed values", func(t *testing.T) {
		options := []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "n", Type: discordgo.ApplicationCommandOptionNumber, Value: 2.5},
			{Name: "i", Type: discordgo.ApplicationCommandOptionInteger, Value: 3.0},
			{Name: "b", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
			{Name: "u", Type: discordgo.ApplicationCommandOptionUser, Value: "123"},
			{Name: "c", Type: discordgo.ApplicationCommandOptionChannel, Value: "456"},
		}

		parsed := parseCommandOptions(options)

		assert.Equal(t, mo.Some(2.5), parsed.GetNumber("n"))
		assert.Equal(t, mo.Some(3.0), parsed.GetNumber("i"))
		assert.Equal(t, mo.Some(true), parsed.GetBool("b"))
		assert.Equal(t, mo.Some("123"), parsed.GetUser("u"))
		assert.Equal(t, mo.Some("456"), parsed.GetChannel("c"))
		assert.True(t, parsed.Subcommand().IsAbsent())
	})
}

func TestToEmbeds(t *testing.T) {
	t.Run("caps embeds and fields", func(t *testing.T) {
		fields := make([]models.EmbedField, 30)
		for i := range fields {
			fields[i] = models.EmbedField{Name: fmt.Sprintf("f%d", i), Value: "v"}
		}
		embeds := make([]models.PlatformEmbed, 12)
		embeds[0].Fields = fields

		out := toEmbeds(embeds)

		assert.Len(t, out, models.MaxEmbedsPerMessage)
		assert.Len(t, out[0].Fields, maxEmbedFields)
	})

	t.Run("maps optional parts", func(t *testing.T) {
		ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		embed := models.PlatformEmbed{
			Title:     "Title",
			Color:     mo.Some(0x00ff00),
			Thumbnail: mo.Some("https://example.com/t.png"),
			Image:     mo.Some("https://example.com/i.png"),
			Footer:    mo.Some("footer"),
			Timestamp: mo.Some(ts),
		}

		out := toEmbeds([]models.PlatformEmbed{embed})

		require.Len(t, out, 1)
		assert.Equal(t, 0x00ff00, out[0].Color)
		assert.Equal(t, "https://example.com/t.png", out[0].Thumbnail.URL)
		assert.Equal(t, "https://example.com/i.png", out[0].Image.URL)
		assert.Equal(t, "footer", out[0].Footer.Text)
		assert.Equal(t, "2025-01-02T03:04:05Z", out[0].Timestamp)
	})
}

func TestToComponents(t *testing.T) {
	t.Run("separates action and link rows", func(t *testing.T) {
		msg := models.PlatformMessage{}
		for i := 0; i < 7; i++ {
			msg.Buttons = append(msg.Buttons, models.PlatformButton{ID: fmt.Sprintf("hack_%d", i), Label: "View"})
		}
		msg.Buttons = append(msg.Buttons,
			models.PlatformButton{URL: "https://example.com/a", Label: "Open"},
			models.PlatformButton{URL: "https://example.com/b", Label: "Open", ID: "ignored"},
		)

		rows := toComponents(msg)

		require.Len(t, rows, 3)
		assert.Len(t, rows[0].(discordgo.ActionsRow).Components, 5)
		assert.Len(t, rows[1].(discordgo.ActionsRow).Components, 2)

		linkRow := rows[2].(discordgo.ActionsRow)
		require.Len(t, linkRow.Components, 2)
		for _, c := range linkRow.Components {
			button := c.(discordgo.Button)
			assert.Equal(t, discordgo.LinkButton, button.Style)
			assert.NotEmpty(t, button.URL)
			assert.Empty(t, button.CustomID)
		}

		action := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
		assert.Equal(t, "hack_0", action.CustomID)
		assert.Empty(t, action.URL)
	})

	t.Run("caps rows", func(t *testing.T) {
		msg := models.PlatformMessage{}
		for i := 0; i < 40; i++ {
			msg.Buttons = append(msg.Buttons, models.PlatformButton{ID: fmt.Sprintf("b%d", i), Label: "x"})
		}

		rows := toComponents(msg)

		assert.Len(t, rows, maxComponentsRows)
	})

	t.Run("no buttons yields no rows", func(t *testing.T) {
		assert.Empty(t, toComponents(models.NewTextMessage("hi", false)))
	})
}

func TestAcceptsText(t *testing.T) {
	assert.True(t, acceptsText(discordgo.ChannelTypeGuildText))
	assert.True(t, acceptsText(discordgo.ChannelTypeDM))
	assert.False(t, acceptsText(discordgo.ChannelTypeGuildVoice))
	assert.False(t, acceptsText(discordgo.ChannelTypeGuildCategory))
}
