package clients

import (
	"context"
	"errors"

	"github.com/samber/mo"

	"nrgbot/models"
)

var (
	// ErrMissingCredentials is returned by Start/DeployCommands when a platform's tokens are absent
	ErrMissingCredentials = errors.New("missing platform credentials")
	// ErrNoReply is returned by EditReply when nothing has been replied or deferred yet
	ErrNoReply = errors.New("interaction has no reply to edit")
	// ErrUnsupportedChannel is returned by SendMessage for channels that cannot receive text
	ErrUnsupportedChannel = errors.New("channel does not accept text messages")
)

// PlatformInteraction is a single inbound user action together with its reply capability.
// Reply after a completed reply is routed to FollowUp; Reply after DeferReply edits the
// deferred response.
type PlatformInteraction interface {
	User() models.PlatformUser
	Channel() models.PlatformChannel
	GuildID() mo.Option[string]
	CommandName() string
	Options() models.CommandOptions
	Platform() models.Platform

	Reply(ctx context.Context, msg models.PlatformMessage) error
	DeferReply(ctx context.Context, ephemeral bool) error
	EditReply(ctx context.Context, msg models.PlatformMessage) error
	FollowUp(ctx context.Context, msg models.PlatformMessage) error

	// Replied reports whether the interaction was already acknowledged with a reply or defer
	Replied() bool
}

// CommandHandler receives every inbound command interaction
type CommandHandler func(ctx context.Context, interaction PlatformInteraction)

// ButtonHandler receives every inbound button click with its action ID
type ButtonHandler func(ctx context.Context, interaction PlatformInteraction, buttonID string)

// PlatformClient is implemented once per chat platform. OnCommand and OnButton
// hold a single handler each; the last registration wins.
type PlatformClient interface {
	Platform() models.Platform
	Start(ctx context.Context) error
	Stop() error
	IsReady() bool

	OnCommand(handler CommandHandler)
	OnButton(handler ButtonHandler)

	// DeployCommands registers command schemas with the platform. Platforms
	// without a registration API treat this as a no-op.
	DeployCommands(ctx context.Context, definitions []models.CommandDefinition) error
	SendMessage(ctx context.Context, channelID string, msg models.PlatformMessage) error

	GetUser(ctx context.Context, userID string) (mo.Option[models.PlatformUser], error)
	GetChannel(ctx context.Context, channelID string) (mo.Option[models.PlatformChannel], error)
}

// GuildRoleManager is the role-management API the sync services consume
type GuildRoleManager interface {
	GuildIDs() []string
	BotUserID() string

	GetMember(ctx context.Context, guildID, userID string) (mo.Option[*models.GuildMember], error)
	ListMembers(ctx context.Context, guildID string) ([]*models.GuildMember, error)
	ListRoles(ctx context.Context, guildID string) ([]*models.GuildRole, error)

	// AddMemberRoles and RemoveMemberRoles apply all given roles in one API call
	AddMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error
	RemoveMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error
	CreateRole(ctx context.Context, guildID, name string, color int, reason string) (*models.GuildRole, error)
}

// RoleEventSource delivers live role events. Unlike command handlers these are
// multi-subscriber: every registered listener is invoked.
type RoleEventSource interface {
	OnMemberRolesUpdated(listener func(ctx context.Context, event models.MemberRolesEvent))
	OnRoleCreated(listener func(ctx context.Context, event models.RoleEvent))
	OnRoleDeleted(listener func(ctx context.Context, event models.RoleEvent))
	OnRoleRenamed(listener func(ctx context.Context, event models.RoleRenameEvent))
}
