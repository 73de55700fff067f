package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Profile is owned by the web app. The bot only reads it and updates DiscordRoles.
type Profile struct {
	ID           string         `db:"id"            json:"id"`
	DiscordID    sql.NullString `db:"discord_id"    json:"discord_id"`
	DiscordRoles pq.StringArray `db:"discord_roles" json:"discord_roles"`
	UpdatedAt    time.Time      `db:"updated_at"    json:"updated_at"`
}

// RoleChangeEvent is emitted locally when a member's role names change on Discord
type RoleChangeEvent struct {
	DiscordID string
	OldRoles  []string
	NewRoles  []string
	At        time.Time
}
