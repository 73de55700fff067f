package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrgbot/core"
	"nrgbot/models"
	"nrgbot/testutils"
)

func setupTagsTest(t *testing.T) (*sqlx.DB, string, func()) {
	cfg := testutils.LoadTestConfig(t)

	dbConn, err := NewConnection(context.Background(), ConnectionConfig{URL: cfg.DatabaseURL, Schema: cfg.DatabaseSchema})
	require.NoError(t, err, "Failed to create database connection")

	return dbConn, cfg.DatabaseSchema, func() { dbConn.Close() }
}

func createTestProfile(t *testing.T, dbConn *sqlx.DB, schema string) string {
	id := core.NewID("prof")
	query := fmt.Sprintf(`INSERT INTO %s.profiles (id, discord_id, discord_roles, updated_at) VALUES ($1, $2, '{}', NOW())`, schema)
	_, err := dbConn.Exec(query, id, "discord-"+id)
	require.NoError(t, err, "Failed to create test profile")
	t.Cleanup(func() {
		_, _ = dbConn.Exec(fmt.Sprintf(`DELETE FROM %s.user_tags WHERE profile_id = $1`, schema), id)
		_, _ = dbConn.Exec(fmt.Sprintf(`DELETE FROM %s.profiles WHERE id = $1`, schema), id)
	})
	return id
}

func TestPostgresTagsRepository_UpsertBySlug(t *testing.T) {
	dbConn, schema, cleanup := setupTagsTest(t)
	defer cleanup()
	repo := NewPostgresTagsRepository(dbConn, schema)
	ctx := context.Background()

	t.Run("same slug returns same id and keeps role linkage", func(t *testing.T) {
		slug := "test-" + core.NewID("s")
		roleID := core.NewID("role")

		first, err := repo.UpsertBySlug(ctx, "Test Role", slug, mo.Some(roleID))
		require.NoError(t, err)
		second, err := repo.UpsertBySlug(ctx, "Test Role Renamed", slug, mo.None[string]())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		tag, err := repo.GetTagByDiscordRoleID(ctx, roleID)
		require.NoError(t, err)
		require.True(t, tag.IsPresent())
		assert.Equal(t, "Test Role Renamed", tag.MustGet().Name)
	})

	t.Run("deleted role keeps its tag but loses linkage", func(t *testing.T) {
		slug := "test-" + core.NewID("s")
		roleID := core.NewID("role")
		_, err := repo.UpsertBySlug(ctx, "Doomed", slug, mo.Some(roleID))
		require.NoError(t, err)

		require.NoError(t, repo.ReconcileDeletedRole(ctx, roleID))

		tag, err := repo.GetTagByDiscordRoleID(ctx, roleID)
		require.NoError(t, err)
		assert.True(t, tag.IsAbsent())
		var count int
		require.NoError(t, dbConn.Get(&count, fmt.Sprintf(`SELECT COUNT(*) FROM %s.tags WHERE slug = $1`, schema), slug))
		assert.Equal(t, 1, count)
	})
}

func TestPostgresUserTagsRepository_FullReplace(t *testing.T) {
	dbConn, schema, cleanup := setupTagsTest(t)
	defer cleanup()
	tags := NewPostgresTagsRepository(dbConn, schema)
	userTags := NewPostgresUserTagsRepository(dbConn, schema)
	ctx := context.Background()
	profileID := createTestProfile(t, dbConn, schema)

	tagID, err := tags.UpsertBySlug(ctx, "Replace Test", "replace-"+core.NewID("s"), mo.None[string]())
	require.NoError(t, err)

	replace := func(tagIDs ...string) {
		_, err := userTags.DeleteUserTagsBySource(ctx, profileID, models.TagSourceDiscord)
		require.NoError(t, err)
		rows := make([]*models.UserTag, 0, len(tagIDs))
		for _, id := range tagIDs {
			rows = append(rows, &models.UserTag{
				ID:        core.NewID("ut"),
				ProfileID: profileID,
				TagID:     id,
				Source:    models.TagSourceDiscord,
			})
		}
		require.NoError(t, userTags.InsertUserTags(ctx, rows))
	}

	replace(tagID)
	replace(tagID)
	got, err := userTags.GetUserTagsBySource(ctx, profileID, models.TagSourceDiscord)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tagID, got[0].TagID)

	replace()
	got, err = userTags.GetUserTagsBySource(ctx, profileID, models.TagSourceDiscord)
	require.NoError(t, err)
	assert.Empty(t, got)
}
