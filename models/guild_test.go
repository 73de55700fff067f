package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleNames(t *testing.T) {
	guildRoles := []*GuildRole{
		{ID: "guild-1", GuildID: "guild-1", Name: EveryoneRoleName},
		{ID: "r1", GuildID: "guild-1", Name: "sleep-optimizer"},
		{ID: "r2", GuildID: "guild-1", Name: "Verified"},
		{ID: "r3", GuildID: "guild-1", Name: "Verified"},
	}

	t.Run("maps, sorts and dedupes names", func(t *testing.T) {
		names := RoleNames(guildRoles, []string{"r2", "r1", "r3"})

		assert.Equal(t, []string{"Verified", "sleep-optimizer"}, names)
	})

	t.Run("drops everyone and unknown ids", func(t *testing.T) {
		names := RoleNames(guildRoles, []string{"guild-1", "gone", "r1"})

		assert.Equal(t, []string{"sleep-optimizer"}, names)
	})

	t.Run("empty input is an empty list", func(t *testing.T) {
		names := RoleNames(guildRoles, nil)

		assert.NotNil(t, names)
		assert.Empty(t, names)
	})
}
