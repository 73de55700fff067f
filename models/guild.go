package models

import "slices"

// EveryoneRoleName is the implicit role every guild member has
const EveryoneRoleName = "@everyone"

// GuildRole is a platform-native role snapshot
type GuildRole struct {
	ID       string
	GuildID  string
	Name     string
	Position int
	Managed  bool
	Color    int
}

// IsEveryone reports whether the role is the guild's implicit everyone role.
// On Discord the everyone role shares its ID with the guild.
func (r *GuildRole) IsEveryone() bool {
	return r.Name == EveryoneRoleName || (r.GuildID != "" && r.ID == r.GuildID)
}

type GuildMember struct {
	GuildID  string
	UserID   string
	Username string
	RoleIDs  []string
}

// MemberRolesEvent fires when a guild member's role assignments change
type MemberRolesEvent struct {
	GuildID    string
	UserID     string
	OldRoleIDs []string
	NewRoleIDs []string
}

// RoleEvent fires when a role is created or deleted
type RoleEvent struct {
	GuildID string
	RoleID  string
	Name    string
}

// RoleRenameEvent fires when a role keeps its ID but changes name
type RoleRenameEvent struct {
	GuildID string
	RoleID  string
	OldName string
	NewName string
}

// RoleNames maps role IDs to names, dropping the everyone role and unknown IDs
func RoleNames(guildRoles []*GuildRole, roleIDs []string) []string {
	byID := make(map[string]*GuildRole, len(guildRoles))
	for _, r := range guildRoles {
		byID[r.ID] = r
	}
	names := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if r, ok := byID[id]; ok && !r.IsEveryone() {
			names = append(names, r.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
