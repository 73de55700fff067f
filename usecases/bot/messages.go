package bot

import (
	"fmt"

	"github.com/gosimple/slug"
	"github.com/samber/mo"

	"nrgbot/models"
	"nrgbot/utils"
)

const (
	UnknownSubcommandMessage = "Unknown subcommand"

	HackButtonPrefix     = "hack_"
	CategoryButtonPrefix = "category_"

	hackColor     = 0x5865F2
	categoryColor = 0x57F287
	roleColor     = 0xFEE75C

	// Discord allows 5 action rows of 5 buttons
	maxButtons          = 25
	maxDescriptionRunes = 300
)

// HackButtonID is the action ID of the "view" button of a hack
func HackButtonID(hackID string) string {
	return HackButtonPrefix + hackID
}

// CategoryButtonID is the action ID of a category button. The category is
// slugged so the ID stays short and free of spaces.
func CategoryButtonID(category string) string {
	return CategoryButtonPrefix + slug.Make(category)
}

func hackURL(webAppURL string, hack *models.Hack) mo.Option[string] {
	if hack.ContentURL.Valid && hack.ContentURL.String != "" {
		return mo.Some(hack.ContentURL.String)
	}
	if webAppURL == "" {
		return mo.None[string]()
	}
	return mo.Some(fmt.Sprintf("%s/hacks/%s", webAppURL, hack.ID))
}

func hackSummaryEmbed(hack *models.Hack) models.PlatformEmbed {
	embed := models.PlatformEmbed{
		Title:       hack.Name,
		Description: utils.Truncate(hack.Description, maxDescriptionRunes),
		Color:       mo.Some(hackColor),
		Footer:      mo.Some("ID: " + hack.ID),
	}
	if hack.Category != "" {
		embed.Fields = append(embed.Fields, models.EmbedField{Name: "Category", Value: hack.Category, Inline: true})
	}
	return embed
}

func hackDetailEmbed(hack *models.Hack) models.PlatformEmbed {
	embed := models.PlatformEmbed{
		Title:       hack.Name,
		Description: hack.Description,
		Color:       mo.Some(hackColor),
		Footer:      mo.Some("ID: " + hack.ID),
		Timestamp:   mo.Some(hack.CreatedAt),
	}
	if hack.Category != "" {
		embed.Fields = append(embed.Fields, models.EmbedField{Name: "Category", Value: hack.Category, Inline: true})
	}
	if hack.ImageURL.Valid && hack.ImageURL.String != "" {
		embed.Image = mo.Some(hack.ImageURL.String)
	}
	return embed
}

func buildHackListMessage(hacks []*models.Hack, title string, webAppURL string) models.PlatformMessage {
	if len(hacks) == 0 {
		return models.NewTextMessage("No hacks found.", true)
	}

	msg := models.PlatformMessage{Content: title}
	for _, hack := range hacks {
		if len(msg.Embeds) == models.MaxEmbedsPerMessage {
			break
		}
		msg.Embeds = append(msg.Embeds, hackSummaryEmbed(hack))
		msg.Buttons = append(msg.Buttons, models.PlatformButton{
			ID:    HackButtonID(hack.ID),
			Label: utils.Truncate("View "+hack.Name, 80),
			Style: models.ButtonStylePrimary,
		})
	}
	if webAppURL != "" {
		msg.Buttons = append(msg.Buttons, models.PlatformButton{
			URL:   webAppURL + "/hacks",
			Label: "Browse all hacks",
			Style: models.ButtonStyleLink,
		})
	}
	return msg
}

func buildHackDetailMessage(hack *models.Hack, webAppURL string) models.PlatformMessage {
	msg := models.PlatformMessage{Embeds: []models.PlatformEmbed{hackDetailEmbed(hack)}}
	if url, ok := hackURL(webAppURL, hack).Get(); ok {
		msg.Buttons = append(msg.Buttons, models.PlatformButton{
			URL:   url,
			Label: "Open hack",
			Style: models.ButtonStyleLink,
		})
	}
	return msg
}
