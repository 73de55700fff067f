package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	dbtx "nrgbot/db/tx"
	"nrgbot/models"
)

type PostgresUserTagsRepository struct {
	db     *sqlx.DB
	schema string
}

var userTagsColumns = []string{
	"id",
	"profile_id",
	"tag_id",
	"source",
	"created_at",
}

func NewPostgresUserTagsRepository(db *sqlx.DB, schema string) *PostgresUserTagsRepository {
	return &PostgresUserTagsRepository{db: db, schema: schema}
}

func (r *PostgresUserTagsRepository) DeleteUserTagsBySource(
	ctx context.Context,
	profileID string,
	source models.TagSource,
) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.user_tags WHERE profile_id = $1 AND source = $2`, r.schema)

	result, err := db.ExecContext(ctx, query, profileID, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tags: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rowsAffected, nil
}

// InsertUserTags inserts all rows in one statement. Rows that already exist
// for the same profile, tag and source are skipped.
func (r *PostgresUserTagsRepository) InsertUserTags(ctx context.Context, rows []*models.UserTag) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*4)
	for i, row := range rows {
		base := i * 4
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, NOW())", base+1, base+2, base+3, base+4))
		args = append(args, row.ID, row.ProfileID, row.TagID, row.Source)
	}

	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.user_tags (id, profile_id, tag_id, source, created_at)
		VALUES %s
		ON CONFLICT (profile_id, tag_id, source) DO NOTHING`, r.schema, strings.Join(placeholders, ", "))

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert user tags: %w", err)
	}
	return nil
}

func (r *PostgresUserTagsRepository) GetUserTagsBySource(
	ctx context.Context,
	profileID string,
	source models.TagSource,
) ([]*models.UserTag, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(userTagsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.user_tags
		WHERE profile_id = $1 AND source = $2
		ORDER BY tag_id`, columnsStr, r.schema)

	var rows []*models.UserTag
	if err := db.SelectContext(ctx, &rows, query, profileID, source); err != nil {
		return nil, fmt.Errorf("failed to get user tags: %w", err)
	}
	return rows, nil
}
