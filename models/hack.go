package models

import (
	"database/sql"
	"time"
)

// Hack is a piece of web app content the bot lets users browse
type Hack struct {
	ID          string         `db:"id"          json:"id"`
	Name        string         `db:"name"        json:"name"`
	Description string         `db:"description" json:"description"`
	Category    string         `db:"category"    json:"category"`
	ImageURL    sql.NullString `db:"image_url"   json:"image_url"`
	ContentURL  sql.NullString `db:"content_url" json:"content_url"`
	CreatedAt   time.Time      `db:"created_at"  json:"created_at"`
}
