package services

import (
	"context"

	"github.com/samber/mo"

	"nrgbot/models"
)

// ProfilesRepository reads web app profiles and writes their discord_roles column.
// UpdateDiscordRoles is idempotent and tolerates the already-current list.
type ProfilesRepository interface {
	FindProfileByDiscordID(ctx context.Context, discordID string) (mo.Option[*models.Profile], error)
	UpdateDiscordRoles(ctx context.Context, discordID string, roleNames []string) (mo.Option[*models.Profile], error)
	ListProfilesWithDiscordID(ctx context.Context) ([]*models.Profile, error)
}

// TagsRepository persists tags keyed by slug. Tags are append-only history:
// nothing in the bot deletes a tag row.
type TagsRepository interface {
	// UpsertBySlug inserts or renames the tag for slug and returns its ID.
	// An existing Discord role linkage is kept when roleID is absent.
	UpsertBySlug(ctx context.Context, name, slug string, roleID mo.Option[string]) (string, error)
	GetTagByDiscordRoleID(ctx context.Context, roleID string) (mo.Option[*models.Tag], error)
	// ReconcileDeletedRole unlinks the role from its tag and removes its Discord usages
	ReconcileDeletedRole(ctx context.Context, roleID string) error
	CountTags(ctx context.Context) (int, error)
}

// UserTagsRepository manages profile/tag associations per source
type UserTagsRepository interface {
	DeleteUserTagsBySource(ctx context.Context, profileID string, source models.TagSource) (int64, error)
	InsertUserTags(ctx context.Context, rows []*models.UserTag) error
	GetUserTagsBySource(ctx context.Context, profileID string, source models.TagSource) ([]*models.UserTag, error)
}

// HacksRepository reads the content users browse from chat
type HacksRepository interface {
	ListHacks(ctx context.Context, category mo.Option[string], limit int) ([]*models.Hack, error)
	GetHackByID(ctx context.Context, id string) (mo.Option[*models.Hack], error)
	ListCategories(ctx context.Context) ([]string, error)
}

// TransactionManager runs a unit of work in one database transaction.
// Repository calls made with the context passed to fn join it.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
