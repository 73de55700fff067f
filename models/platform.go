package models

import (
	"time"

	"github.com/samber/mo"
)

// Platform identifies which chat platform produced an interaction
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformSlack   Platform = "slack"
)

// ChannelType is the neutral classification of a platform channel
type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeDM    ChannelType = "dm"
	ChannelTypeVoice ChannelType = "voice"
)

// MaxEmbedsPerMessage is the upper bound of embeds a single message may carry
const MaxEmbedsPerMessage = 10

// PlatformUser is constructed per interaction and never persisted
type PlatformUser struct {
	ID          string
	Username    string
	DisplayName mo.Option[string]
	AvatarURL   mo.Option[string]
	Platform    Platform
}

// Name returns the display name when present, falling back to the username
func (u PlatformUser) Name() string {
	return u.DisplayName.OrElse(u.Username)
}

type PlatformChannel struct {
	ID       string
	Name     string
	Type     ChannelType
	Platform Platform
}

// EmbedField is a single name/value pair rendered inside an embed
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// PlatformEmbed is a structured content block. Platforms without rich embeds
// render it as an equivalent sequence of blocks.
type PlatformEmbed struct {
	Title       string
	Description string
	Color       mo.Option[int]
	Fields      []EmbedField
	Thumbnail   mo.Option[string]
	Image       mo.Option[string]
	Footer      mo.Option[string]
	Timestamp   mo.Option[time.Time]
}

type ButtonStyle string

const (
	ButtonStylePrimary   ButtonStyle = "primary"
	ButtonStyleSecondary ButtonStyle = "secondary"
	ButtonStyleSuccess   ButtonStyle = "success"
	ButtonStyleDanger    ButtonStyle = "danger"
	ButtonStyleLink      ButtonStyle = "link"
)

// PlatformButton carries either an opaque action ID or a navigation URL.
// When URL is set the button is a link button and ID is never emitted.
type PlatformButton struct {
	ID       string
	URL      string
	Label    string
	Style    ButtonStyle
	Disabled bool
}

// IsLink reports whether the button navigates to a URL instead of triggering an action
func (b PlatformButton) IsLink() bool {
	return b.URL != ""
}

// PlatformMessage is the outbound, transport-neutral message value
type PlatformMessage struct {
	Content   string
	Embeds    []PlatformEmbed
	Buttons   []PlatformButton
	Ephemeral bool
}

// NewTextMessage builds a plain text message
func NewTextMessage(content string, ephemeral bool) PlatformMessage {
	return PlatformMessage{Content: content, Ephemeral: ephemeral}
}

// LinkButtons returns the buttons that navigate to a URL
func (m PlatformMessage) LinkButtons() []PlatformButton {
	var out []PlatformButton
	for _, b := range m.Buttons {
		if b.IsLink() {
			out = append(out, b)
		}
	}
	return out
}

// ActionButtons returns the buttons that carry an action ID
func (m PlatformMessage) ActionButtons() []PlatformButton {
	var out []PlatformButton
	for _, b := range m.Buttons {
		if !b.IsLink() && b.ID != "" {
			out = append(out, b)
		}
	}
	return out
}
