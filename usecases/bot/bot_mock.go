package bot

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nrgbot/models"
)

// MockRoleSyncer is a mock implementation of RoleSyncer
type MockRoleSyncer struct {
	mock.Mock
}

func (m *MockRoleSyncer) SyncUserRoles(ctx context.Context, discordID string) error {
	args := m.Called(ctx, discordID)
	return args.Error(0)
}

// MockSyncStatsProvider is a mock implementation of SyncStatsProvider
type MockSyncStatsProvider struct {
	mock.Mock
}

func (m *MockSyncStatsProvider) GetSyncStats(ctx context.Context) (models.TagSyncStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.TagSyncStats), args.Error(1)
}
