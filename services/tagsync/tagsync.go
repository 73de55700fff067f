package tagsync

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/samber/mo"

	"nrgbot/clients"
	"nrgbot/core"
	"nrgbot/metrics"
	"nrgbot/models"
	"nrgbot/services"
	"nrgbot/services/periodic"
)

// TagSyncService mirrors Discord roles into tags and member role assignments
// into source='discord' user tags.
type TagSyncService struct {
	roles     clients.GuildRoleManager
	events    clients.RoleEventSource
	profiles  services.ProfilesRepository
	tags      services.TagsRepository
	userTags  services.UserTagsRepository
	txManager services.TransactionManager
	runner    *periodic.Runner

	attachOnce sync.Once
}

func NewTagSyncService(
	roles clients.GuildRoleManager,
	events clients.RoleEventSource,
	profiles services.ProfilesRepository,
	tags services.TagsRepository,
	userTags services.UserTagsRepository,
	txManager services.TransactionManager,
	m *metrics.Metrics,
	middlewares ...periodic.Middleware,
) *TagSyncService {
	s := &TagSyncService{
		roles:     roles,
		events:    events,
		profiles:  profiles,
		tags:      tags,
		userTags:  userTags,
		txManager: txManager,
	}
	s.runner = periodic.NewRunner("tag sync", s.SyncAllGuilds, m, middlewares...)
	return s
}

// Initialize attaches the event listeners, schedules the periodic re-sync and
// runs one full sync before returning.
func (s *TagSyncService) Initialize(ctx context.Context, interval time.Duration) error {
	log.Printf("📋 Initializing tag sync")

	s.attachOnce.Do(func() {
		s.events.OnMemberRolesUpdated(guard("member roles updated", s.HandleMemberRolesUpdated))
		s.events.OnRoleCreated(guard("role created", s.HandleRoleCreated))
		s.events.OnRoleDeleted(guard("role deleted", s.HandleRoleDeleted))
		s.events.OnRoleRenamed(guard("role renamed", s.HandleRoleRenamed))
	})
	s.runner.Start(interval)

	if _, err := s.runner.RunNow(ctx); err != nil {
		return fmt.Errorf("initial tag sync failed: %w", err)
	}
	log.Printf("✅ Tag sync initialized")
	return nil
}

func (s *TagSyncService) Stop() {
	s.runner.Stop()
}

// SyncRoleAsTag upserts the tag for roleName and returns its ID. Failures are
// logged and reported as absent.
func (s *TagSyncService) SyncRoleAsTag(ctx context.Context, roleName string, roleID mo.Option[string]) mo.Option[string] {
	tagSlug := slug.Make(roleName)
	if tagSlug == "" {
		log.Printf("⚠️ Role %q has no usable slug, skipping", roleName)
		return mo.None[string]()
	}

	id, err := s.tags.UpsertBySlug(ctx, roleName, tagSlug, roleID)
	if err != nil {
		log.Printf("❌ Failed to sync role %q as tag: %v", roleName, err)
		return mo.None[string]()
	}
	return mo.Some(id)
}

// SyncUserToTags resolves role names to tags and replaces the profile's
// Discord tags with exactly that set.
func (s *TagSyncService) SyncUserToTags(ctx context.Context, profileID string, roleNames []string) error {
	tagIDs := make([]string, 0, len(roleNames))
	for _, name := range roleNames {
		if name == models.EveryoneRoleName {
			continue
		}
		if id, ok := s.SyncRoleAsTag(ctx, name, mo.None[string]()).Get(); ok {
			tagIDs = append(tagIDs, id)
		}
	}
	return s.replaceUserTags(ctx, profileID, tagIDs)
}

// replaceUserTags deletes every source='discord' row of the profile and
// inserts tagIDs, in one transaction.
func (s *TagSyncService) replaceUserTags(ctx context.Context, profileID string, tagIDs []string) error {
	seen := make(map[string]struct{}, len(tagIDs))
	rows := make([]*models.UserTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, &models.UserTag{
			ID:        core.NewID("ut"),
			ProfileID: profileID,
			TagID:     id,
			Source:    models.TagSourceDiscord,
		})
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.userTags.DeleteUserTagsBySource(ctx, profileID, models.TagSourceDiscord); err != nil {
			return err
		}
		return s.userTags.InsertUserTags(ctx, rows)
	})
	if err != nil {
		return fmt.Errorf("failed to replace discord tags of profile %s: %w", profileID, err)
	}
	return nil
}

// SyncAllGuilds mirrors every role of every guild as a tag, then replaces the
// Discord tags of every linked member with the union of what they hold across
// all guilds. Role mirroring is isolated per guild. When any guild could not be
// read, member tags are left as they are until the next pass.
func (s *TagSyncService) SyncAllGuilds(ctx context.Context) error {
	log.Printf("📋 Starting tag sync for all guilds")

	held := make(map[string][]string)
	var order []string
	complete := true
	for _, guildID := range s.roles.GuildIDs() {
		if err := s.collectGuild(ctx, guildID, held, &order); err != nil {
			complete = false
			log.Printf("❌ Tag sync of guild %s failed: %v", guildID, err)
		}
	}
	if !complete {
		log.Printf("⚠️ Not every guild could be read, keeping member tags until the next pass")
		return nil
	}

	synced := 0
	for _, discordID := range order {
		ok, err := s.syncMember(ctx, discordID, held[discordID])
		if err != nil {
			log.Printf("❌ Failed to sync tags for %s: %v", discordID, err)
			continue
		}
		if ok {
			synced++
		}
	}

	log.Printf("✅ Tag sync finished: %d linked members synced", synced)
	return nil
}

// collectGuild mirrors the guild's roles and appends each member's tag IDs
// to held. order records first sighting so replacement runs in a stable order.
func (s *TagSyncService) collectGuild(ctx context.Context, guildID string, held map[string][]string, order *[]string) error {
	guildRoles, err := s.roles.ListRoles(ctx, guildID)
	if err != nil {
		return err
	}
	tagByRole := s.syncRolesAsTags(ctx, guildRoles)

	members, err := s.roles.ListMembers(ctx, guildID)
	if err != nil {
		return err
	}

	for _, member := range members {
		if _, seen := held[member.UserID]; !seen {
			*order = append(*order, member.UserID)
			held[member.UserID] = []string{}
		}
		held[member.UserID] = append(held[member.UserID], tagsForRoles(member.RoleIDs, tagByRole)...)
	}
	log.Printf("📋 Guild %s: %d roles mirrored, %d members seen", guildID, len(tagByRole), len(members))
	return nil
}

func (s *TagSyncService) syncRolesAsTags(ctx context.Context, guildRoles []*models.GuildRole) map[string]string {
	tagByRole := make(map[string]string, len(guildRoles))
	for _, role := range guildRoles {
		if role.IsEveryone() {
			continue
		}
		if id, ok := s.SyncRoleAsTag(ctx, role.Name, mo.Some(role.ID)).Get(); ok {
			tagByRole[role.ID] = id
		}
	}
	return tagByRole
}

func tagsForRoles(roleIDs []string, tagByRole map[string]string) []string {
	tagIDs := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if tagID, ok := tagByRole[id]; ok {
			tagIDs = append(tagIDs, tagID)
		}
	}
	return tagIDs
}

// tagsFromOtherGuilds returns the tags discordID holds through roles on every
// guild except skipGuild.
func (s *TagSyncService) tagsFromOtherGuilds(ctx context.Context, discordID, skipGuild string) ([]string, error) {
	var tagIDs []string
	for _, guildID := range s.roles.GuildIDs() {
		if guildID == skipGuild {
			continue
		}
		maybeMember, err := s.roles.GetMember(ctx, guildID, discordID)
		if err != nil {
			return nil, fmt.Errorf("failed to get member %s of guild %s: %w", discordID, guildID, err)
		}
		member, ok := maybeMember.Get()
		if !ok {
			continue
		}
		guildRoles, err := s.roles.ListRoles(ctx, guildID)
		if err != nil {
			return nil, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
		}
		tagIDs = append(tagIDs, tagsForRoles(member.RoleIDs, s.syncRolesAsTags(ctx, guildRoles))...)
	}
	return tagIDs, nil
}

// syncMember replaces a linked member's Discord tags with tagIDs. It reports
// false when the member has no profile.
func (s *TagSyncService) syncMember(ctx context.Context, discordID string, tagIDs []string) (bool, error) {
	maybeProfile, err := s.profiles.FindProfileByDiscordID(ctx, discordID)
	if err != nil {
		return false, err
	}
	profile, ok := maybeProfile.Get()
	if !ok {
		return false, nil
	}
	return true, s.replaceUserTags(ctx, profile.ID, tagIDs)
}

// HandleMemberRolesUpdated persists the member's role names and replaces their Discord tags
func (s *TagSyncService) HandleMemberRolesUpdated(ctx context.Context, event models.MemberRolesEvent) {
	maybeProfile, err := s.profiles.FindProfileByDiscordID(ctx, event.UserID)
	if err != nil {
		log.Printf("❌ Failed to load profile for %s: %v", event.UserID, err)
		return
	}
	profile, ok := maybeProfile.Get()
	if !ok {
		return
	}

	guildRoles, err := s.roles.ListRoles(ctx, event.GuildID)
	if err != nil {
		log.Printf("❌ Failed to list roles of guild %s: %v", event.GuildID, err)
		return
	}

	names := models.RoleNames(guildRoles, event.NewRoleIDs)
	if _, err := s.profiles.UpdateDiscordRoles(ctx, event.UserID, names); err != nil {
		log.Printf("❌ Failed to persist roles for %s: %v", event.UserID, err)
		return
	}

	var held []*models.GuildRole
	for _, role := range guildRoles {
		for _, id := range event.NewRoleIDs {
			if role.ID == id {
				held = append(held, role)
			}
		}
	}
	tagIDs := tagsForRoles(event.NewRoleIDs, s.syncRolesAsTags(ctx, held))
	elsewhere, err := s.tagsFromOtherGuilds(ctx, event.UserID, event.GuildID)
	if err != nil {
		log.Printf("❌ Keeping tags of %s: %v", event.UserID, err)
		return
	}
	tagIDs = append(tagIDs, elsewhere...)
	if err := s.replaceUserTags(ctx, profile.ID, tagIDs); err != nil {
		log.Printf("❌ %v", err)
		return
	}
	log.Printf("✅ Synced %d tags for %s", len(tagIDs), event.UserID)
}

func (s *TagSyncService) HandleRoleCreated(ctx context.Context, event models.RoleEvent) {
	if id, ok := s.SyncRoleAsTag(ctx, event.Name, mo.Some(event.RoleID)).Get(); ok {
		log.Printf("✅ Role %s mirrored as tag %s", event.Name, id)
	}
}

// HandleRoleDeleted removes the role's Discord usages. The tag itself stays.
func (s *TagSyncService) HandleRoleDeleted(ctx context.Context, event models.RoleEvent) {
	linked, err := s.tags.GetTagByDiscordRoleID(ctx, event.RoleID)
	if err != nil {
		log.Printf("❌ Failed to look up tag for deleted role %s: %v", event.RoleID, err)
		return
	}
	if linked.IsAbsent() {
		log.Printf("📋 Deleted role %s has no tag, nothing to reconcile", event.RoleID)
		return
	}

	if err := s.tags.ReconcileDeletedRole(ctx, event.RoleID); err != nil {
		log.Printf("❌ Failed to reconcile deleted role %s: %v", event.RoleID, err)
		return
	}
	log.Printf("✅ Reconciled deleted role %s (tag %s kept)", event.Name, linked.MustGet().ID)
}

// HandleRoleRenamed moves the role's linkage to the tag for the new name and
// re-syncs every member holding the role.
func (s *TagSyncService) HandleRoleRenamed(ctx context.Context, event models.RoleRenameEvent) {
	if err := s.tags.ReconcileDeletedRole(ctx, event.RoleID); err != nil {
		log.Printf("❌ Failed to unlink renamed role %s: %v", event.RoleID, err)
		return
	}

	tagID, ok := s.SyncRoleAsTag(ctx, event.NewName, mo.Some(event.RoleID)).Get()
	if !ok {
		return
	}

	guildRoles, err := s.roles.ListRoles(ctx, event.GuildID)
	if err != nil {
		log.Printf("❌ Failed to list roles of guild %s: %v", event.GuildID, err)
		return
	}
	members, err := s.roles.ListMembers(ctx, event.GuildID)
	if err != nil {
		log.Printf("❌ Failed to list members of guild %s: %v", event.GuildID, err)
		return
	}

	tagByRole := map[string]string{event.RoleID: tagID}
	for _, role := range guildRoles {
		if role.ID == event.RoleID || role.IsEveryone() {
			continue
		}
		if id, ok := s.SyncRoleAsTag(ctx, role.Name, mo.Some(role.ID)).Get(); ok {
			tagByRole[role.ID] = id
		}
	}

	resynced := 0
	for _, member := range members {
		if !holdsRole(member, event.RoleID) {
			continue
		}
		elsewhere, err := s.tagsFromOtherGuilds(ctx, member.UserID, event.GuildID)
		if err != nil {
			log.Printf("❌ Failed to re-sync tags for %s: %v", member.UserID, err)
			continue
		}
		ok, err := s.syncMember(ctx, member.UserID, append(tagsForRoles(member.RoleIDs, tagByRole), elsewhere...))
		if err != nil {
			log.Printf("❌ Failed to re-sync tags for %s: %v", member.UserID, err)
			continue
		}
		if ok {
			resynced++
		}
	}
	log.Printf("✅ Role %q renamed to %q, re-synced %d members", event.OldName, event.NewName, resynced)
}

func holdsRole(member *models.GuildMember, roleID string) bool {
	for _, id := range member.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// GetSyncStats counts what the service can see. It never writes.
func (s *TagSyncService) GetSyncStats(ctx context.Context) (models.TagSyncStats, error) {
	stats := models.TagSyncStats{}
	for _, guildID := range s.roles.GuildIDs() {
		roles, err := s.roles.ListRoles(ctx, guildID)
		if err != nil {
			return models.TagSyncStats{}, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
		}
		members, err := s.roles.ListMembers(ctx, guildID)
		if err != nil {
			return models.TagSyncStats{}, fmt.Errorf("failed to list members of guild %s: %w", guildID, err)
		}

		stats.Guilds++
		for _, r := range roles {
			if !r.IsEveryone() {
				stats.Roles++
			}
		}
		stats.Members += len(members)
	}
	return stats, nil
}

// guard isolates one event handler so a panic never reaches the event source
func guard[E any](name string, handler func(context.Context, E)) func(context.Context, E) {
	return func(ctx context.Context, event E) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ Panic in %s handler: %v\n%s", name, r, debug.Stack())
			}
		}()
		handler(ctx, event)
	}
}
