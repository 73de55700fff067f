package models

import (
	"database/sql"
	"time"
)

type TagSource string

// TagSourceDiscord marks rows owned by the bot; rows with any other source are never touched
const TagSourceDiscord TagSource = "discord"

type Tag struct {
	ID            string         `db:"id"              json:"id"`
	Name          string         `db:"name"            json:"name"`
	Slug          string         `db:"slug"            json:"slug"`
	DiscordRoleID sql.NullString `db:"discord_role_id" json:"discord_role_id"`
	Source        TagSource      `db:"source"          json:"source"`
	CreatedAt     time.Time      `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"      json:"updated_at"`
}

type UserTag struct {
	ID        string    `db:"id"         json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	TagID     string    `db:"tag_id"     json:"tag_id"`
	Source    TagSource `db:"source"     json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TagSyncStats is a read-only snapshot of what the tag sync service sees
type TagSyncStats struct {
	Guilds  int `json:"guilds"`
	Roles   int `json:"roles"`
	Members int `json:"members"`
}
