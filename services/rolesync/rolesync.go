package rolesync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"

	"nrgbot/clients"
	"nrgbot/metrics"
	"nrgbot/models"
	"nrgbot/services"
	"nrgbot/services/periodic"
	"nrgbot/utils"
)

const auditReason = "nrghax role sync"

// ManagedRole is one of the roles the bot owns on every guild
type ManagedRole struct {
	Name  string
	Color int
}

// ManagedRoles is the closed set of roles role sync may add or remove
var ManagedRoles = []ManagedRole{
	{Name: "energy-optimizer", Color: 0xF1C40F},
	{Name: "sleep-optimizer", Color: 0x5865F2},
	{Name: "focus-optimizer", Color: 0x3498DB},
	{Name: "longevity-optimizer", Color: 0x2ECC71},
	{Name: "fitness-optimizer", Color: 0xE67E22},
	{Name: "nutrition-optimizer", Color: 0x1ABC9C},
	{Name: "stress-optimizer", Color: 0x9B59B6},
	{Name: "recovery-optimizer", Color: 0xE91E63},
}

var managedRoleNames = func() map[string]struct{} {
	names := make(map[string]struct{}, len(ManagedRoles))
	for _, r := range ManagedRoles {
		names[r.Name] = struct{}{}
	}
	return names
}()

// IsManagedRole reports whether name belongs to the managed role set
func IsManagedRole(name string) bool {
	_, ok := managedRoleNames[name]
	return ok
}

// SyncResult summarizes one SyncAllRoles pass
type SyncResult struct {
	Profiles int
	Failed   int
}

type RoleSyncService struct {
	roles       clients.GuildRoleManager
	profiles    services.ProfilesRepository
	metrics     *metrics.Metrics
	concurrency int
	runner      *periodic.Runner

	listenersMu sync.RWMutex
	listeners   []func(ctx context.Context, event models.RoleChangeEvent)
}

func NewRoleSyncService(
	roles clients.GuildRoleManager,
	profiles services.ProfilesRepository,
	m *metrics.Metrics,
	concurrency int,
	middlewares ...periodic.Middleware,
) *RoleSyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	s := &RoleSyncService{
		roles:       roles,
		profiles:    profiles,
		metrics:     m,
		concurrency: concurrency,
	}
	s.runner = periodic.NewRunner("role sync", func(ctx context.Context) error {
		_, err := s.SyncAllRoles(ctx)
		return err
	}, m, middlewares...)
	return s
}

// StartPeriodicSync runs SyncAllRoles every interval. Calling it again
// replaces the previous schedule.
func (s *RoleSyncService) StartPeriodicSync(interval time.Duration) {
	s.runner.Start(interval)
}

func (s *RoleSyncService) StopPeriodicSync() {
	s.runner.Stop()
}

// OnRolesChanged registers a listener for persisted role changes
func (s *RoleSyncService) OnRolesChanged(listener func(ctx context.Context, event models.RoleChangeEvent)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// SyncAllRoles reconciles every linked profile. A failing profile is logged
// and counted but never aborts the batch.
func (s *RoleSyncService) SyncAllRoles(ctx context.Context) (SyncResult, error) {
	log.Printf("📋 Starting role sync for all linked profiles")

	profiles, err := s.profiles.ListProfilesWithDiscordID(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to list linked profiles: %w", err)
	}

	var failed atomic.Int64
	wp := workerpool.New(s.concurrency)
	for _, profile := range profiles {
		discordID := profile.DiscordID.String
		if discordID == "" {
			continue
		}
		wp.Submit(func() {
			// Pool goroutines sit outside the runner's recover.
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					log.Printf("❌ Panic while syncing roles for %s: %v\n%s", discordID, r, debug.Stack())
				}
			}()
			if err := s.SyncUserRoles(ctx, discordID); err != nil {
				failed.Add(1)
				log.Printf("❌ Failed to sync roles for %s: %v", discordID, err)
			}
		})
	}
	wp.StopWait()

	result := SyncResult{Profiles: len(profiles), Failed: int(failed.Load())}
	log.Printf("✅ Role sync finished: %d profiles, %d failed", result.Profiles, result.Failed)
	return result, nil
}

// SyncUserRoles reconciles one member's managed roles on every guild they
// belong to against their profile. An unknown profile is a no-op.
func (s *RoleSyncService) SyncUserRoles(ctx context.Context, discordID string) error {
	maybeProfile, err := s.profiles.FindProfileByDiscordID(ctx, discordID)
	if err != nil {
		return fmt.Errorf("failed to load profile for %s: %w", discordID, err)
	}
	profile, ok := maybeProfile.Get()
	if !ok {
		return nil
	}

	var errs []error
	for _, guildID := range s.roles.GuildIDs() {
		if err := s.syncMemberInGuild(ctx, guildID, discordID, profile.DiscordRoles); err != nil {
			log.Printf("❌ Role sync for %s in guild %s failed: %v", discordID, guildID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *RoleSyncService) syncMemberInGuild(ctx context.Context, guildID, discordID string, desired []string) error {
	maybeMember, err := s.roles.GetMember(ctx, guildID, discordID)
	if err != nil {
		return err
	}
	member, ok := maybeMember.Get()
	if !ok {
		return nil
	}

	guildRoles, err := s.roles.ListRoles(ctx, guildID)
	if err != nil {
		return err
	}
	botPosition, err := s.botHighestPosition(ctx, guildID, guildRoles)
	if err != nil {
		return err
	}

	plan := planRoleChanges(guildRoles, member.RoleIDs, desired, botPosition)
	for _, name := range plan.skipped {
		log.Printf("⚠️ Skipping role %s for %s in guild %s: missing or not manageable", name, discordID, guildID)
	}

	if err := s.roles.RemoveMemberRoles(ctx, guildID, discordID, plan.removeIDs, auditReason); err != nil {
		return err
	}
	if err := s.roles.AddMemberRoles(ctx, guildID, discordID, plan.addIDs, auditReason); err != nil {
		return err
	}

	s.metrics.RolesChanged("remove", len(plan.removeIDs))
	s.metrics.RolesChanged("add", len(plan.addIDs))
	if len(plan.addIDs)+len(plan.removeIDs) > 0 {
		log.Printf("✅ Synced roles for %s in guild %s: +%d -%d", discordID, guildID, len(plan.addIDs), len(plan.removeIDs))
	}
	return nil
}

// botHighestPosition returns the highest position among the bot's roles.
// A bot without roles sits at position 0, so nothing is eligible.
func (s *RoleSyncService) botHighestPosition(
	ctx context.Context,
	guildID string,
	guildRoles []*models.GuildRole,
) (int, error) {
	maybeBot, err := s.roles.GetMember(ctx, guildID, s.roles.BotUserID())
	if err != nil {
		return 0, fmt.Errorf("failed to get bot member: %w", err)
	}
	bot, ok := maybeBot.Get()
	if !ok {
		return 0, fmt.Errorf("bot is not a member of guild %s", guildID)
	}

	positions := make(map[string]int, len(guildRoles))
	for _, r := range guildRoles {
		positions[r.ID] = r.Position
	}
	highest := 0
	for _, id := range bot.RoleIDs {
		if p := positions[id]; p > highest {
			highest = p
		}
	}
	return highest, nil
}

type rolePlan struct {
	addIDs    []string
	removeIDs []string
	skipped   []string
}

// planRoleChanges computes the batched diff for one member.
// toAdd is managed(desired) minus current names; toRemove is current managed
// names minus desired. Only eligible roles make it into the plan.
func planRoleChanges(guildRoles []*models.GuildRole, currentIDs, desired []string, botPosition int) rolePlan {
	byID := make(map[string]*models.GuildRole, len(guildRoles))
	byName := make(map[string]*models.GuildRole, len(guildRoles))
	for _, r := range guildRoles {
		byID[r.ID] = r
		if _, dup := byName[r.Name]; !dup {
			byName[r.Name] = r
		}
	}

	var currentNames []string
	for _, id := range currentIDs {
		if r, ok := byID[id]; ok {
			currentNames = append(currentNames, r.Name)
		}
	}

	var desiredManaged, currentManaged []string
	for _, name := range desired {
		if IsManagedRole(name) {
			desiredManaged = append(desiredManaged, name)
		}
	}
	for _, name := range currentNames {
		if IsManagedRole(name) {
			currentManaged = append(currentManaged, name)
		}
	}

	plan := rolePlan{addIDs: []string{}, removeIDs: []string{}}
	for _, name := range utils.SortedUnique(utils.Difference(desiredManaged, currentNames)) {
		role, ok := byName[name]
		if !ok || !isEligible(role, botPosition) {
			plan.skipped = append(plan.skipped, name)
			continue
		}
		plan.addIDs = append(plan.addIDs, role.ID)
	}
	stale := utils.Difference(currentManaged, desired)
	for _, id := range utils.SortedUnique(currentIDs) {
		role, ok := byID[id]
		if !ok || !slices.Contains(stale, role.Name) {
			continue
		}
		if !isEligible(role, botPosition) {
			plan.skipped = append(plan.skipped, role.Name)
			continue
		}
		plan.removeIDs = append(plan.removeIDs, role.ID)
	}
	return plan
}

func isEligible(role *models.GuildRole, botPosition int) bool {
	return !role.IsEveryone() && !role.Managed && role.Position < botPosition
}

// HandleRoleUpdateEvent persists a member's new role names and notifies
// listeners. Role sets that only differ in order are not a change.
func (s *RoleSyncService) HandleRoleUpdateEvent(
	ctx context.Context,
	discordID string,
	oldRoles, newRoles []string,
) (bool, error) {
	if utils.SameStringSet(oldRoles, newRoles) {
		return false, nil
	}

	roles := utils.SortedUnique(newRoles)
	updated, err := s.profiles.UpdateDiscordRoles(ctx, discordID, roles)
	if err != nil {
		return false, fmt.Errorf("failed to persist roles for %s: %w", discordID, err)
	}
	if updated.IsAbsent() {
		log.Printf("📋 No linked profile for %s, ignoring role change", discordID)
		return false, nil
	}

	event := models.RoleChangeEvent{
		DiscordID: discordID,
		OldRoles:  utils.SortedUnique(oldRoles),
		NewRoles:  roles,
		At:        time.Now(),
	}
	log.Printf("✅ Persisted role change for %s: %v -> %v", discordID, event.OldRoles, event.NewRoles)
	s.emit(ctx, event)
	return true, nil
}

func (s *RoleSyncService) emit(ctx context.Context, event models.RoleChangeEvent) {
	s.listenersMu.RLock()
	listeners := append([]func(context.Context, models.RoleChangeEvent){}, s.listeners...)
	s.listenersMu.RUnlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("❌ Role change listener panicked: %v", r)
				}
			}()
			listener(ctx, event)
		}()
	}
}

// AttachEventSource routes live member role updates into HandleRoleUpdateEvent
func (s *RoleSyncService) AttachEventSource(source clients.RoleEventSource) {
	source.OnMemberRolesUpdated(s.handleMemberRolesEvent)
}

func (s *RoleSyncService) handleMemberRolesEvent(ctx context.Context, event models.MemberRolesEvent) {
	guildRoles, err := s.roles.ListRoles(ctx, event.GuildID)
	if err != nil {
		log.Printf("❌ Failed to resolve role names for %s in guild %s: %v", event.UserID, event.GuildID, err)
		return
	}

	oldNames := models.RoleNames(guildRoles, event.OldRoleIDs)
	newNames := models.RoleNames(guildRoles, event.NewRoleIDs)
	if _, err := s.HandleRoleUpdateEvent(ctx, event.UserID, oldNames, newNames); err != nil {
		log.Printf("❌ Failed to handle role update for %s: %v", event.UserID, err)
	}
}

// EnsureManagedRolesExist creates every managed role missing from the guild.
// A failed creation is logged and the remaining roles are still attempted.
func (s *RoleSyncService) EnsureManagedRolesExist(ctx context.Context, guildID string) (int, error) {
	existing, err := s.roles.ListRoles(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
	}

	present := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		present[r.Name] = struct{}{}
	}

	created := 0
	for _, role := range ManagedRoles {
		if _, ok := present[role.Name]; ok {
			continue
		}
		if _, err := s.roles.CreateRole(ctx, guildID, role.Name, role.Color, auditReason); err != nil {
			log.Printf("❌ Failed to create role %s in guild %s: %v", role.Name, guildID, err)
			continue
		}
		created++
		log.Printf("✅ Created role %s in guild %s", role.Name, guildID)
	}
	return created, nil
}

// EnsureManagedRolesInAllGuilds runs EnsureManagedRolesExist on every connected guild
func (s *RoleSyncService) EnsureManagedRolesInAllGuilds(ctx context.Context) {
	for _, guildID := range s.roles.GuildIDs() {
		if _, err := s.EnsureManagedRolesExist(ctx, guildID); err != nil {
			log.Printf("❌ %v", err)
		}
	}
}
