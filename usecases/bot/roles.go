package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/mo"

	"nrgbot/clients"
	"nrgbot/models"
	"nrgbot/services"
	"nrgbot/services/rolesync"
)

const DiscordOnlyMessage = "Role commands are only available on Discord."

// RoleSyncer applies a profile's managed roles to the member in every guild
type RoleSyncer interface {
	SyncUserRoles(ctx context.Context, discordID string) error
}

// SyncStatsProvider reports what tag sync currently sees
type SyncStatsProvider interface {
	GetSyncStats(ctx context.Context) (models.TagSyncStats, error)
}

// RolesCommand serves /roles show, /roles sync and /roles stats
type RolesCommand struct {
	profiles  services.ProfilesRepository
	roleSync  RoleSyncer
	stats     SyncStatsProvider
	webAppURL string
}

func NewRolesCommand(
	profiles services.ProfilesRepository,
	roleSync RoleSyncer,
	stats SyncStatsProvider,
	webAppURL string,
) *RolesCommand {
	return &RolesCommand{
		profiles:  profiles,
		roleSync:  roleSync,
		stats:     stats,
		webAppURL: webAppURL,
	}
}

func (c *RolesCommand) Definition() models.CommandDefinition {
	return models.CommandDefinition{
		Name:        "roles",
		Description: "Inspect and sync your nrghax roles",
		Subcommands: []models.SubcommandDefinition{
			{Name: "show", Description: "Show the roles stored on your profile"},
			{Name: "sync", Description: "Apply your profile roles to this server now"},
			{Name: "stats", Description: "Show role and tag sync statistics"},
		},
	}
}

func (c *RolesCommand) Execute(ctx context.Context, interaction clients.PlatformInteraction) error {
	if interaction.Platform() != models.PlatformDiscord {
		return interaction.Reply(ctx, models.NewTextMessage(DiscordOnlyMessage, true))
	}

	switch interaction.Options().Subcommand().OrElse("show") {
	case "show":
		return c.show(ctx, interaction)
	case "sync":
		return c.sync(ctx, interaction)
	case "stats":
		return c.showStats(ctx, interaction)
	default:
		return interaction.Reply(ctx, models.NewTextMessage(UnknownSubcommandMessage, true))
	}
}

func (c *RolesCommand) show(ctx context.Context, interaction clients.PlatformInteraction) error {
	profile, ok, err := c.linkedProfile(ctx, interaction)
	if err != nil || !ok {
		return err
	}

	var managed, other []string
	for _, name := range profile.DiscordRoles {
		if rolesync.IsManagedRole(name) {
			managed = append(managed, name)
		} else {
			other = append(other, name)
		}
	}

	embed := models.PlatformEmbed{
		Title: fmt.Sprintf("Roles of %s", interaction.User().Name()),
		Color: mo.Some(roleColor),
		Fields: []models.EmbedField{
			{Name: "Managed roles", Value: joinOrNone(managed)},
			{Name: "Other roles", Value: joinOrNone(other)},
		},
		Timestamp: mo.Some(profile.UpdatedAt),
	}
	return interaction.Reply(ctx, models.PlatformMessage{Embeds: []models.PlatformEmbed{embed}, Ephemeral: true})
}

func (c *RolesCommand) sync(ctx context.Context, interaction clients.PlatformInteraction) error {
	_, ok, err := c.linkedProfile(ctx, interaction)
	if err != nil || !ok {
		return err
	}

	if err := interaction.DeferReply(ctx, true); err != nil {
		return fmt.Errorf("failed to defer reply: %w", err)
	}

	userID := interaction.User().ID
	if err := c.roleSync.SyncUserRoles(ctx, userID); err != nil {
		return fmt.Errorf("failed to sync roles of %s: %w", userID, err)
	}

	log.Printf("✅ Synced roles of %s on request", userID)
	return interaction.EditReply(ctx, models.NewTextMessage("✅ Your roles are in sync with your profile.", true))
}

func (c *RolesCommand) showStats(ctx context.Context, interaction clients.PlatformInteraction) error {
	stats, err := c.stats.GetSyncStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sync stats: %w", err)
	}

	embed := models.PlatformEmbed{
		Title: "Sync statistics",
		Color: mo.Some(roleColor),
		Fields: []models.EmbedField{
			{Name: "Guilds", Value: fmt.Sprint(stats.Guilds), Inline: true},
			{Name: "Roles", Value: fmt.Sprint(stats.Roles), Inline: true},
			{Name: "Members", Value: fmt.Sprint(stats.Members), Inline: true},
		},
	}
	return interaction.Reply(ctx, models.PlatformMessage{Embeds: []models.PlatformEmbed{embed}, Ephemeral: true})
}

// linkedProfile replies to the user itself when no profile is linked
func (c *RolesCommand) linkedProfile(
	ctx context.Context,
	interaction clients.PlatformInteraction,
) (*models.Profile, bool, error) {
	userID := interaction.User().ID
	maybeProfile, err := c.profiles.FindProfileByDiscordID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find profile of %s: %w", userID, err)
	}
	profile, ok := maybeProfile.Get()
	if ok {
		return profile, true, nil
	}

	text := "Your Discord account is not linked to an nrghax profile."
	if c.webAppURL != "" {
		text += fmt.Sprintf(" Link it at %s/profile.", c.webAppURL)
	}
	return nil, false, interaction.Reply(ctx, models.NewTextMessage(text, true))
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}
