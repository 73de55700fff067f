package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"nrgbot/core"
	dbtx "nrgbot/db/tx"
	"nrgbot/models"
)

type PostgresTagsRepository struct {
	db     *sqlx.DB
	schema string
}

var tagsColumns = []string{
	"id",
	"name",
	"slug",
	"discord_role_id",
	"source",
	"created_at",
	"updated_at",
}

func NewPostgresTagsRepository(db *sqlx.DB, schema string) *PostgresTagsRepository {
	return &PostgresTagsRepository{db: db, schema: schema}
}

// UpsertBySlug creates the tag for slug or renames the existing one. The
// discord_role_id is only overwritten when a role ID is supplied.
func (r *PostgresTagsRepository) UpsertBySlug(
	ctx context.Context,
	name, slug string,
	roleID mo.Option[string],
) (string, error) {
	if slug == "" {
		return "", fmt.Errorf("slug cannot be empty")
	}

	var role sql.NullString
	if id, ok := roleID.Get(); ok {
		role = sql.NullString{String: id, Valid: true}
	}

	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.tags (id, name, slug, discord_role_id, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			discord_role_id = COALESCE(EXCLUDED.discord_role_id, tags.discord_role_id),
			updated_at = NOW()
		RETURNING id`, r.schema)

	var id string
	err := db.QueryRowxContext(ctx, query, core.NewID("tag"), name, slug, role, models.TagSourceDiscord).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert tag %s: %w", slug, err)
	}

	return id, nil
}

func (r *PostgresTagsRepository) GetTagByDiscordRoleID(
	ctx context.Context,
	roleID string,
) (mo.Option[*models.Tag], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(tagsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.tags
		WHERE discord_role_id = $1`, columnsStr, r.schema)

	var tag models.Tag
	if err := db.GetContext(ctx, &tag, query, roleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.Tag](), nil
		}
		return mo.None[*models.Tag](), fmt.Errorf("failed to get tag by discord role ID: %w", err)
	}

	return mo.Some(&tag), nil
}

// ReconcileDeletedRole removes the Discord usages of the role's tag and clears
// its role linkage. The tag row itself is kept.
func (r *PostgresTagsRepository) ReconcileDeletedRole(ctx context.Context, roleID string) error {
	db := dbtx.GetTransactional(ctx, r.db)

	deleteUsages := fmt.Sprintf(`
		DELETE FROM %s.user_tags
		WHERE source = $2 AND tag_id IN (
			SELECT id FROM %s.tags WHERE discord_role_id = $1
		)`, r.schema, r.schema)
	if _, err := db.ExecContext(ctx, deleteUsages, roleID, models.TagSourceDiscord); err != nil {
		return fmt.Errorf("failed to delete user tags for role %s: %w", roleID, err)
	}

	unlink := fmt.Sprintf(`
		UPDATE %s.tags
		SET discord_role_id = NULL, updated_at = NOW()
		WHERE discord_role_id = $1`, r.schema)
	if _, err := db.ExecContext(ctx, unlink, roleID); err != nil {
		return fmt.Errorf("failed to unlink tag from role %s: %w", roleID, err)
	}

	return nil
}

func (r *PostgresTagsRepository) CountTags(ctx context.Context) (int, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s.tags WHERE source = $1`, r.schema)

	var count int
	if err := db.GetContext(ctx, &count, query, models.TagSourceDiscord); err != nil {
		return 0, fmt.Errorf("failed to count tags: %w", err)
	}
	return count, nil
}
