package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/mo"

	dbtx "nrgbot/db/tx"
	"nrgbot/models"
)

// PostgresProfilesRepository reads the web app's profiles table. The bot only
// ever writes the discord_roles column.
type PostgresProfilesRepository struct {
	db     *sqlx.DB
	schema string
}

var profilesColumns = []string{
	"id",
	"discord_id",
	"discord_roles",
	"updated_at",
}

func NewPostgresProfilesRepository(db *sqlx.DB, schema string) *PostgresProfilesRepository {
	return &PostgresProfilesRepository{db: db, schema: schema}
}

func (r *PostgresProfilesRepository) FindProfileByDiscordID(
	ctx context.Context,
	discordID string,
) (mo.Option[*models.Profile], error) {
	if discordID == "" {
		return mo.None[*models.Profile](), fmt.Errorf("discord ID cannot be empty")
	}

	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(profilesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.profiles
		WHERE discord_id = $1`, columnsStr, r.schema)

	var profile models.Profile
	if err := db.GetContext(ctx, &profile, query, discordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.Profile](), nil
		}
		return mo.None[*models.Profile](), fmt.Errorf("failed to get profile by discord ID: %w", err)
	}

	return mo.Some(&profile), nil
}

// UpdateDiscordRoles overwrites discord_roles. Writing the current value again
// only bumps updated_at.
func (r *PostgresProfilesRepository) UpdateDiscordRoles(
	ctx context.Context,
	discordID string,
	roleNames []string,
) (mo.Option[*models.Profile], error) {
	if roleNames == nil {
		roleNames = []string{}
	}

	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(profilesColumns, ", ")
	query := fmt.Sprintf(`
		UPDATE %s.profiles
		SET discord_roles = $2, updated_at = NOW()
		WHERE discord_id = $1
		RETURNING %s`, r.schema, returningStr)

	var profile models.Profile
	if err := db.QueryRowxContext(ctx, query, discordID, pq.StringArray(roleNames)).StructScan(&profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.Profile](), nil
		}
		return mo.None[*models.Profile](), fmt.Errorf("failed to update discord roles: %w", err)
	}

	return mo.Some(&profile), nil
}

func (r *PostgresProfilesRepository) ListProfilesWithDiscordID(ctx context.Context) ([]*models.Profile, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(profilesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.profiles
		WHERE discord_id IS NOT NULL AND discord_id <> ''
		ORDER BY id`, columnsStr, r.schema)

	var profiles []*models.Profile
	if err := db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles with discord ID: %w", err)
	}

	return profiles, nil
}
