package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	dbtx "nrgbot/db/tx"
	"nrgbot/models"
)

type PostgresHacksRepository struct {
	db     *sqlx.DB
	schema string
}

var hacksColumns = []string{
	"id",
	"name",
	"description",
	"category",
	"image_url",
	"content_url",
	"created_at",
}

func NewPostgresHacksRepository(db *sqlx.DB, schema string) *PostgresHacksRepository {
	return &PostgresHacksRepository{db: db, schema: schema}
}

func (r *PostgresHacksRepository) ListHacks(
	ctx context.Context,
	category mo.Option[string],
	limit int,
) ([]*models.Hack, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(hacksColumns, ", ")

	var hacks []*models.Hack
	var err error
	if c, ok := category.Get(); ok {
		query := fmt.Sprintf(`
			SELECT %s
			FROM %s.hacks
			WHERE LOWER(category) = LOWER($1)
			ORDER BY created_at DESC
			LIMIT $2`, columnsStr, r.schema)
		err = db.SelectContext(ctx, &hacks, query, c, limit)
	} else {
		query := fmt.Sprintf(`
			SELECT %s
			FROM %s.hacks
			ORDER BY created_at DESC
			LIMIT $1`, columnsStr, r.schema)
		err = db.SelectContext(ctx, &hacks, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list hacks: %w", err)
	}

	return hacks, nil
}

func (r *PostgresHacksRepository) GetHackByID(ctx context.Context, id string) (mo.Option[*models.Hack], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(hacksColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.hacks
		WHERE id = $1`, columnsStr, r.schema)

	var hack models.Hack
	if err := db.GetContext(ctx, &hack, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.Hack](), nil
		}
		return mo.None[*models.Hack](), fmt.Errorf("failed to get hack by ID: %w", err)
	}

	return mo.Some(&hack), nil
}

func (r *PostgresHacksRepository) ListCategories(ctx context.Context) ([]string, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		SELECT DISTINCT category
		FROM %s.hacks
		WHERE category <> ''
		ORDER BY category`, r.schema)

	var categories []string
	if err := db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
