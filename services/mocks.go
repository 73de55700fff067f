package services

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"nrgbot/models"
)

// MockProfilesRepository is a mock implementation of ProfilesRepository
type MockProfilesRepository struct {
	mock.Mock
}

func (m *MockProfilesRepository) FindProfileByDiscordID(
	ctx context.Context,
	discordID string,
) (mo.Option[*models.Profile], error) {
	args := m.Called(ctx, discordID)
	return args.Get(0).(mo.Option[*models.Profile]), args.Error(1)
}

func (m *MockProfilesRepository) UpdateDiscordRoles(
	ctx context.Context,
	discordID string,
	roleNames []string,
) (mo.Option[*models.Profile], error) {
	args := m.Called(ctx, discordID, roleNames)
	return args.Get(0).(mo.Option[*models.Profile]), args.Error(1)
}

func (m *MockProfilesRepository) ListProfilesWithDiscordID(ctx context.Context) ([]*models.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}

// MockTagsRepository is a mock implementation of TagsRepository
type MockTagsRepository struct {
	mock.Mock
}

func (m *MockTagsRepository) UpsertBySlug(
	ctx context.Context,
	name, slug string,
	roleID mo.Option[string],
) (string, error) {
	args := m.Called(ctx, name, slug, roleID)
	return args.String(0), args.Error(1)
}

func (m *MockTagsRepository) GetTagByDiscordRoleID(
	ctx context.Context,
	roleID string,
) (mo.Option[*models.Tag], error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).(mo.Option[*models.Tag]), args.Error(1)
}

func (m *MockTagsRepository) ReconcileDeletedRole(ctx context.Context, roleID string) error {
	args := m.Called(ctx, roleID)
	return args.Error(0)
}

func (m *MockTagsRepository) CountTags(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockUserTagsRepository is a mock implementation of UserTagsRepository
type MockUserTagsRepository struct {
	mock.Mock
}

func (m *MockUserTagsRepository) DeleteUserTagsBySource(
	ctx context.Context,
	profileID string,
	source models.TagSource,
) (int64, error) {
	args := m.Called(ctx, profileID, source)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserTagsRepository) InsertUserTags(ctx context.Context, rows []*models.UserTag) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockUserTagsRepository) GetUserTagsBySource(
	ctx context.Context,
	profileID string,
	source models.TagSource,
) ([]*models.UserTag, error) {
	args := m.Called(ctx, profileID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserTag), args.Error(1)
}

// MockHacksRepository is a mock implementation of HacksRepository
type MockHacksRepository struct {
	mock.Mock
}

func (m *MockHacksRepository) ListHacks(
	ctx context.Context,
	category mo.Option[string],
	limit int,
) ([]*models.Hack, error) {
	args := m.Called(ctx, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Hack), args.Error(1)
}

func (m *MockHacksRepository) GetHackByID(ctx context.Context, id string) (mo.Option[*models.Hack], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Hack]), args.Error(1)
}

func (m *MockHacksRepository) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
