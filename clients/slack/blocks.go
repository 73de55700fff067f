package slack

import (
	"fmt"

	"github.com/slack-go/slack"

	"nrgbot/models"
	"nrgbot/utils"
)

const (
	maxFieldsPerSection = 10
	maxButtonsPerAction = 5
	maxHeaderLength     = 150
	maxSectionLength    = 3000
)

// toBlocks renders a message as Block Kit blocks. Embeds become a header, a
// description section, field sections of at most 10 fields, an image and a
// context footer.
func toBlocks(msg models.PlatformMessage) []slack.Block {
	var blocks []slack.Block

	if msg.Content != "" {
		blocks = append(blocks, markdownSection(msg.Content))
	}

	embeds := msg.Embeds
	if len(embeds) > models.MaxEmbedsPerMessage {
		embeds = embeds[:models.MaxEmbedsPerMessage]
	}
	for i, embed := range embeds {
		if i > 0 || msg.Content != "" {
			blocks = append(blocks, slack.NewDividerBlock())
		}
		blocks = append(blocks, embedBlocks(embed)...)
	}

	blocks = append(blocks, buttonBlocks(msg.ActionButtons())...)
	blocks = append(blocks, buttonBlocks(msg.LinkButtons())...)
	return blocks
}

func embedBlocks(embed models.PlatformEmbed) []slack.Block {
	var blocks []slack.Block

	if embed.Title != "" {
		title := slack.NewTextBlockObject(slack.PlainTextType, utils.Truncate(embed.Title, maxHeaderLength), true, false)
		blocks = append(blocks, slack.NewHeaderBlock(title))
	}

	if embed.Description != "" {
		var accessory *slack.Accessory
		if thumb, ok := embed.Thumbnail.Get(); ok {
			accessory = slack.NewAccessory(slack.NewImageBlockElement(thumb, embed.Title))
		}
		text := slack.NewTextBlockObject(slack.MarkdownType, utils.Truncate(embed.Description, maxSectionLength), false, false)
		blocks = append(blocks, slack.NewSectionBlock(text, nil, accessory))
	}

	for start := 0; start < len(embed.Fields); start += maxFieldsPerSection {
		end := min(start+maxFieldsPerSection, len(embed.Fields))
		fields := make([]*slack.TextBlockObject, 0, end-start)
		for _, f := range embed.Fields[start:end] {
			fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*%s*\n%s", f.Name, f.Value), false, false))
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}

	if image, ok := embed.Image.Get(); ok {
		altText := embed.Title
		if altText == "" {
			altText = "image"
		}
		blocks = append(blocks, slack.NewImageBlock(image, altText, "", nil))
	}

	var contextElements []slack.MixedElement
	if footer, ok := embed.Footer.Get(); ok {
		contextElements = append(contextElements, slack.NewTextBlockObject(slack.MarkdownType, footer, false, false))
	}
	if ts, ok := embed.Timestamp.Get(); ok {
		formatted := fmt.Sprintf("<!date^%d^{date_short_pretty} {time}|%s>", ts.Unix(), ts.UTC().Format("2006-01-02 15:04 UTC"))
		contextElements = append(contextElements, slack.NewTextBlockObject(slack.MarkdownType, formatted, false, false))
	}
	if len(contextElements) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", contextElements...))
	}

	return blocks
}

// buttonBlocks groups buttons into action blocks of at most 5 buttons
func buttonBlocks(buttons []models.PlatformButton) []slack.Block {
	var blocks []slack.Block
	for start := 0; start < len(buttons); start += maxButtonsPerAction {
		end := min(start+maxButtonsPerAction, len(buttons))
		elements := make([]slack.BlockElement, 0, end-start)
		for _, b := range buttons[start:end] {
			elements = append(elements, toButtonElement(b))
		}
		blocks = append(blocks, slack.NewActionBlock("", elements...))
	}
	return blocks
}

func toButtonElement(b models.PlatformButton) *slack.ButtonBlockElement {
	text := slack.NewTextBlockObject(slack.PlainTextType, b.Label, true, false)
	if b.IsLink() {
		return slack.NewButtonBlockElement("", "", text).WithURL(b.URL)
	}
	return slack.NewButtonBlockElement(b.ID, "", text).WithStyle(toButtonStyle(b.Style))
}

func toButtonStyle(style models.ButtonStyle) slack.Style {
	switch style {
	case models.ButtonStylePrimary, models.ButtonStyleSuccess:
		return slack.StylePrimary
	case models.ButtonStyleDanger:
		return slack.StyleDanger
	default:
		return slack.StyleDefault
	}
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, utils.Truncate(text, maxSectionLength), false, false),
		nil,
		nil,
	)
}

// fallbackText is shown in notifications and clients that cannot render blocks
func fallbackText(msg models.PlatformMessage) string {
	if msg.Content != "" {
		return msg.Content
	}
	for _, e := range msg.Embeds {
		if e.Title != "" {
			return e.Title
		}
		if e.Description != "" {
			return e.Description
		}
	}
	return " "
}

func messageOptions(msg models.PlatformMessage) []slack.MsgOption {
	options := []slack.MsgOption{slack.MsgOptionText(fallbackText(msg), false)}
	if blocks := toBlocks(msg); len(blocks) > 0 {
		options = append(options, slack.MsgOptionBlocks(blocks...))
	}
	return options
}

func toWebhookMessage(msg models.PlatformMessage, replaceOriginal bool) *slack.WebhookMessage {
	responseType := slack.ResponseTypeInChannel
	if msg.Ephemeral {
		responseType = slack.ResponseTypeEphemeral
	}
	return &slack.WebhookMessage{
		Text:            fallbackText(msg),
		Blocks:          &slack.Blocks{BlockSet: toBlocks(msg)},
		ResponseType:    responseType,
		ReplaceOriginal: replaceOriginal,
	}
}
