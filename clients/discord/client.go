package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"nrgbot/clients"
	"nrgbot/config"
	"nrgbot/core"
	"nrgbot/models"
	"nrgbot/utils"
)

const membersPageSize = 1000

// DiscordClient is the gateway adapter. It implements clients.PlatformClient,
// clients.GuildRoleManager and clients.RoleEventSource on one session.
type DiscordClient struct {
	session Session
	cfg     config.DiscordConfig

	handlersMu     sync.RWMutex
	commandHandler clients.CommandHandler
	buttonHandler  clients.ButtonHandler

	listenersMu      sync.RWMutex
	memberListeners  []func(ctx context.Context, event models.MemberRolesEvent)
	createdListeners []func(ctx context.Context, event models.RoleEvent)
	deletedListeners []func(ctx context.Context, event models.RoleEvent)
	renamedListeners []func(ctx context.Context, event models.RoleRenameEvent)

	// roleNames maps role ID to its last seen name, used only to detect renames
	roleNamesMu sync.Mutex
	roleNames   map[string]string

	ready        atomic.Bool
	registerOnce sync.Once
}

var (
	_ clients.PlatformClient   = (*DiscordClient)(nil)
	_ clients.GuildRoleManager = (*DiscordClient)(nil)
	_ clients.RoleEventSource  = (*DiscordClient)(nil)
)

// NewDiscordClient creates a Discord client with a gateway session for the bot token
func NewDiscordClient(cfg config.DiscordConfig) (*DiscordClient, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	return NewDiscordClientWithSession(cfg, &sessionAdapter{Session: dg}), nil
}

// NewDiscordClientWithSession creates a Discord client on top of an existing session
func NewDiscordClientWithSession(cfg config.DiscordConfig, session Session) *DiscordClient {
	return &DiscordClient{
		session:   session,
		cfg:       cfg,
		roleNames: make(map[string]string),
	}
}

func (c *DiscordClient) Platform() models.Platform {
	return models.PlatformDiscord
}

func (c *DiscordClient) Start(ctx context.Context) error {
	if c.cfg.BotToken == "" {
		return clients.ErrMissingCredentials
	}

	c.registerOnce.Do(func() {
		c.session.AddHandler(c.onReady)
		c.session.AddHandler(c.onDisconnect)
		c.session.AddHandler(c.onInteractionCreate)
		c.session.AddHandler(c.onGuildCreate)
		c.session.AddHandler(c.onGuildMemberUpdate)
		c.session.AddHandler(c.onRoleCreate)
		c.session.AddHandler(c.onRoleUpdate)
		c.session.AddHandler(c.onRoleDelete)
	})

	log.Printf("📋 Starting to open Discord gateway session")
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	log.Printf("📋 Completed successfully - Discord gateway session opened")
	return nil
}

func (c *DiscordClient) Stop() error {
	c.ready.Store(false)
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close Discord session: %w", err)
	}
	log.Printf("✅ Discord gateway session closed")
	return nil
}

func (c *DiscordClient) IsReady() bool {
	return c.ready.Load()
}

func (c *DiscordClient) OnCommand(handler clients.CommandHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.commandHandler = handler
}

func (c *DiscordClient) OnButton(handler clients.ButtonHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.buttonHandler = handler
}

// DeployCommands overwrites the application's slash commands, scoped to the
// configured guild when one is set
func (c *DiscordClient) DeployCommands(ctx context.Context, definitions []models.CommandDefinition) error {
	if !c.cfg.IsConfigured() {
		return clients.ErrMissingCredentials
	}

	scope := "globally"
	if c.cfg.GuildID != "" {
		scope = "to guild " + c.cfg.GuildID
	}
	log.Printf("📋 Starting to deploy %d Discord commands %s", len(definitions), scope)

	deployed, err := c.session.ApplicationCommandBulkOverwrite(
		c.cfg.AppID,
		c.cfg.GuildID,
		toApplicationCommands(definitions),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to deploy Discord commands: %w", err)
	}

	log.Printf("📋 Completed successfully - deployed %d Discord commands", len(deployed))
	return nil
}

func (c *DiscordClient) SendMessage(ctx context.Context, channelID string, msg models.PlatformMessage) error {
	channel, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to resolve channel %s: %w", channelID, err)
	}
	if !acceptsText(channel.Type) {
		return fmt.Errorf("channel %s: %w", channelID, clients.ErrUnsupportedChannel)
	}

	if _, err := c.session.ChannelMessageSendComplex(
		channelID,
		toMessageSend(msg),
		discordgo.WithContext(ctx),
	); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return nil
}

func (c *DiscordClient) GetUser(ctx context.Context, userID string) (mo.Option[models.PlatformUser], error) {
	user, err := c.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return mo.None[models.PlatformUser](), nil
		}
		return mo.None[models.PlatformUser](), fmt.Errorf("failed to get Discord user %s: %w", userID, err)
	}
	return mo.Some(toPlatformUser(user, nil)), nil
}

func (c *DiscordClient) GetChannel(ctx context.Context, channelID string) (mo.Option[models.PlatformChannel], error) {
	channel, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return mo.None[models.PlatformChannel](), nil
		}
		return mo.None[models.PlatformChannel](), fmt.Errorf("failed to get Discord channel %s: %w", channelID, err)
	}
	return mo.Some(toPlatformChannel(channel)), nil
}

// GuildRoleManager

func (c *DiscordClient) GuildIDs() []string {
	return c.session.GuildIDs()
}

func (c *DiscordClient) BotUserID() string {
	return c.session.BotUserID()
}

func (c *DiscordClient) GetMember(
	ctx context.Context,
	guildID, userID string,
) (mo.Option[*models.GuildMember], error) {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return mo.None[*models.GuildMember](), nil
		}
		return mo.None[*models.GuildMember](), fmt.Errorf("failed to get member %s in guild %s: %w", userID, guildID, err)
	}
	return mo.Some(toGuildMember(guildID, member)), nil
}

func (c *DiscordClient) ListMembers(ctx context.Context, guildID string) ([]*models.GuildMember, error) {
	var (
		members []*models.GuildMember
		after   string
	)
	for {
		page, err := c.session.GuildMembers(guildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list members of guild %s: %w", guildID, err)
		}
		for _, m := range page {
			members = append(members, toGuildMember(guildID, m))
		}
		if len(page) < membersPageSize {
			return members, nil
		}
		last := page[len(page)-1]
		if last.User == nil {
			return members, nil
		}
		after = last.User.ID
	}
}

func (c *DiscordClient) ListRoles(ctx context.Context, guildID string) ([]*models.GuildRole, error) {
	roles, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
	}

	// The rename cache is fed by gateway events only. Refreshing it here
	// could swallow a rename whose update event has not been handled yet.
	out := make([]*models.GuildRole, 0, len(roles))
	for _, r := range roles {
		out = append(out, toGuildRole(guildID, r))
	}
	return out, nil
}

// AddMemberRoles grants all roleIDs with a single member edit
func (c *DiscordClient) AddMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	return c.editMemberRoles(ctx, guildID, userID, reason, func(current []string) []string {
		return utils.SortedUnique(append(slices.Clone(current), roleIDs...))
	})
}

// RemoveMemberRoles revokes all roleIDs with a single member edit
func (c *DiscordClient) RemoveMemberRoles(
	ctx context.Context,
	guildID, userID string,
	roleIDs []string,
	reason string,
) error {
	if len(roleIDs) == 0 {
		return nil
	}
	return c.editMemberRoles(ctx, guildID, userID, reason, func(current []string) []string {
		return utils.Difference(current, roleIDs)
	})
}

func (c *DiscordClient) editMemberRoles(
	ctx context.Context,
	guildID, userID, reason string,
	apply func(current []string) []string,
) error {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to get member %s in guild %s: %w", userID, guildID, err)
	}

	roles := apply(member.Roles)
	if roles == nil {
		roles = []string{}
	}

	options := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		options = append(options, discordgo.WithAuditLogReason(reason))
	}
	if _, err := c.session.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{Roles: &roles}, options...); err != nil {
		return fmt.Errorf("failed to update roles of member %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

func (c *DiscordClient) CreateRole(
	ctx context.Context,
	guildID, name string,
	color int,
	reason string,
) (*models.GuildRole, error) {
	options := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		options = append(options, discordgo.WithAuditLogReason(reason))
	}

	role, err := c.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name, Color: &color}, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create role %s in guild %s: %w", name, guildID, err)
	}
	return toGuildRole(guildID, role), nil
}

// RoleEventSource

func (c *DiscordClient) OnMemberRolesUpdated(listener func(ctx context.Context, event models.MemberRolesEvent)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.memberListeners = append(c.memberListeners, listener)
}

func (c *DiscordClient) OnRoleCreated(listener func(ctx context.Context, event models.RoleEvent)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.createdListeners = append(c.createdListeners, listener)
}

func (c *DiscordClient) OnRoleDeleted(listener func(ctx context.Context, event models.RoleEvent)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.deletedListeners = append(c.deletedListeners, listener)
}

func (c *DiscordClient) OnRoleRenamed(listener func(ctx context.Context, event models.RoleRenameEvent)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.renamedListeners = append(c.renamedListeners, listener)
}

// Gateway handlers

func (c *DiscordClient) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.ready.Store(true)
	username := ""
	if r.User != nil {
		username = r.User.Username
	}
	log.Printf("✅ Discord bot ready as %s in %d guilds", username, len(r.Guilds))
}

func (c *DiscordClient) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	c.ready.Store(false)
	log.Printf("⚠️ Discord gateway disconnected")
}

func (c *DiscordClient) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	c.handleInteraction(context.Background(), i.Interaction)
}

func (c *DiscordClient) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	c.handlersMu.RLock()
	commandHandler := c.commandHandler
	buttonHandler := c.buttonHandler
	c.handlersMu.RUnlock()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if commandHandler == nil {
			log.Printf("⚠️ No command handler registered, dropping Discord command %s", i.ApplicationCommandData().Name)
			return
		}
		commandHandler(ctx, newDiscordInteraction(c.session, i))
	case discordgo.InteractionMessageComponent:
		if buttonHandler == nil {
			return
		}
		buttonHandler(ctx, newDiscordInteraction(c.session, i), i.MessageComponentData().CustomID)
	}
}

func (c *DiscordClient) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g == nil || g.Guild == nil {
		return
	}
	for _, role := range g.Roles {
		c.rememberRoleName(role.ID, role.Name)
	}
	log.Printf("📋 Discord guild %s available with %d roles", g.ID, len(g.Roles))
}

func (c *DiscordClient) onGuildMemberUpdate(_ *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	if e == nil || e.Member == nil || e.User == nil {
		return
	}

	event := models.MemberRolesEvent{
		GuildID:    e.GuildID,
		UserID:     e.User.ID,
		NewRoleIDs: slices.Clone(e.Roles),
	}
	// Without the cached previous state the old roles are unknown and left nil
	if e.BeforeUpdate != nil {
		event.OldRoleIDs = slices.Clone(e.BeforeUpdate.Roles)
		if utils.SameStringSet(event.OldRoleIDs, event.NewRoleIDs) {
			return
		}
	}

	c.listenersMu.RLock()
	listeners := slices.Clone(c.memberListeners)
	c.listenersMu.RUnlock()

	for _, listener := range listeners {
		dispatchEvent(context.Background(), "member roles updated", listener, event)
	}
}

func (c *DiscordClient) onRoleCreate(_ *discordgo.Session, e *discordgo.GuildRoleCreate) {
	if e == nil || e.GuildRole == nil || e.Role == nil {
		return
	}
	c.rememberRoleName(e.Role.ID, e.Role.Name)

	event := models.RoleEvent{GuildID: e.GuildID, RoleID: e.Role.ID, Name: e.Role.Name}

	c.listenersMu.RLock()
	listeners := slices.Clone(c.createdListeners)
	c.listenersMu.RUnlock()

	for _, listener := range listeners {
		dispatchEvent(context.Background(), "role created", listener, event)
	}
}

func (c *DiscordClient) onRoleUpdate(_ *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	if e == nil || e.GuildRole == nil || e.Role == nil {
		return
	}

	oldName, known := c.rememberRoleName(e.Role.ID, e.Role.Name)
	if !known || oldName == e.Role.Name {
		return
	}

	event := models.RoleRenameEvent{
		GuildID: e.GuildID,
		RoleID:  e.Role.ID,
		OldName: oldName,
		NewName: e.Role.Name,
	}

	c.listenersMu.RLock()
	listeners := slices.Clone(c.renamedListeners)
	c.listenersMu.RUnlock()

	for _, listener := range listeners {
		dispatchEvent(context.Background(), "role renamed", listener, event)
	}
}

func (c *DiscordClient) onRoleDelete(_ *discordgo.Session, e *discordgo.GuildRoleDelete) {
	if e == nil {
		return
	}

	c.roleNamesMu.Lock()
	name := c.roleNames[e.RoleID]
	delete(c.roleNames, e.RoleID)
	c.roleNamesMu.Unlock()

	event := models.RoleEvent{GuildID: e.GuildID, RoleID: e.RoleID, Name: name}

	c.listenersMu.RLock()
	listeners := slices.Clone(c.deletedListeners)
	c.listenersMu.RUnlock()

	for _, listener := range listeners {
		dispatchEvent(context.Background(), "role deleted", listener, event)
	}
}

// rememberRoleName stores the role's current name and returns the previous one
func (c *DiscordClient) rememberRoleName(roleID, name string) (string, bool) {
	c.roleNamesMu.Lock()
	defer c.roleNamesMu.Unlock()
	previous, ok := c.roleNames[roleID]
	c.roleNames[roleID] = name
	return previous, ok
}

// dispatchEvent invokes one listener, containing its panics so sibling
// listeners still run
func dispatchEvent[E any](ctx context.Context, name string, listener func(context.Context, E), event E) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in Discord %s listener: %v", name, r)
		}
	}()
	listener(ctx, event)
}

// isNotFound recognizes Discord's 404 and "Unknown ..." API errors
func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return true
		}
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeUnknownUser,
				discordgo.ErrCodeUnknownChannel,
				discordgo.ErrCodeUnknownMember,
				discordgo.ErrCodeUnknownRole:
				return true
			}
		}
	}
	return core.IsNotFoundError(err)
}
