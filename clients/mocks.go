package clients

import (
	"context"
	"sync"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"nrgbot/models"
)

// MockPlatformClient implements the PlatformClient interface for testing
type MockPlatformClient struct {
	mock.Mock

	mu             sync.Mutex
	CommandHandler CommandHandler
	ButtonHandler  ButtonHandler
}

func (m *MockPlatformClient) Platform() models.Platform {
	args := m.Called()
	return args.Get(0).(models.Platform)
}

func (m *MockPlatformClient) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPlatformClient) Stop() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPlatformClient) IsReady() bool {
	args := m.Called()
	return args.Bool(0)
}

// OnCommand records the handler so tests can drive it directly
func (m *MockPlatformClient) OnCommand(handler CommandHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommandHandler = handler
}

// OnButton records the handler so tests can drive it directly
func (m *MockPlatformClient) OnButton(handler ButtonHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ButtonHandler = handler
}

func (m *MockPlatformClient) DeployCommands(ctx context.Context, definitions []models.CommandDefinition) error {
	args := m.Called(ctx, definitions)
	return args.Error(0)
}

func (m *MockPlatformClient) SendMessage(ctx context.Context, channelID string, msg models.PlatformMessage) error {
	args := m.Called(ctx, channelID, msg)
	return args.Error(0)
}

func (m *MockPlatformClient) GetUser(ctx context.Context, userID string) (mo.Option[models.PlatformUser], error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(mo.Option[models.PlatformUser]), args.Error(1)
}

func (m *MockPlatformClient) GetChannel(ctx context.Context, channelID string) (mo.Option[models.PlatformChannel], error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(mo.Option[models.PlatformChannel]), args.Error(1)
}

// MockPlatformInteraction implements the PlatformInteraction interface for testing.
// Identity fields are plain values; reply operations go through mock.Mock.
type MockPlatformInteraction struct {
	mock.Mock

	UserValue        models.PlatformUser
	ChannelValue     models.PlatformChannel
	GuildIDValue     mo.Option[string]
	CommandNameValue string
	OptionsValue     models.CommandOptions
	PlatformValue    models.Platform
}

func (m *MockPlatformInteraction) User() models.PlatformUser       { return m.UserValue }
func (m *MockPlatformInteraction) Channel() models.PlatformChannel { return m.ChannelValue }
func (m *MockPlatformInteraction) GuildID() mo.Option[string]      { return m.GuildIDValue }
func (m *MockPlatformInteraction) CommandName() string             { return m.CommandNameValue }
func (m *MockPlatformInteraction) Platform() models.Platform       { return m.PlatformValue }

func (m *MockPlatformInteraction) Options() models.CommandOptions {
	if m.OptionsValue == nil {
		return models.CommandOptions{}
	}
	return m.OptionsValue
}

func (m *MockPlatformInteraction) Reply(ctx context.Context, msg models.PlatformMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPlatformInteraction) DeferReply(ctx context.Context, ephemeral bool) error {
	args := m.Called(ctx, ephemeral)
	return args.Error(0)
}

func (m *MockPlatformInteraction) EditReply(ctx context.Context, msg models.PlatformMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPlatformInteraction) FollowUp(ctx context.Context, msg models.PlatformMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPlatformInteraction) Replied() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockGuildRoleManager implements the GuildRoleManager interface for testing
type MockGuildRoleManager struct {
	mock.Mock
}

func (m *MockGuildRoleManager) GuildIDs() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockGuildRoleManager) BotUserID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockGuildRoleManager) GetMember(
	ctx context.Context,
	guildID, userID string,
) (mo.Option[*models.GuildMember], error) {
	args := m.Called(ctx, guildID, userID)
	return args.Get(0).(mo.Option[*models.GuildMember]), args.Error(1)
}

func (m *MockGuildRoleManager) ListMembers(ctx context.Context, guildID string) ([]*models.GuildMember, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GuildMember), args.Error(1)
}

func (m *MockGuildRoleManager) ListRoles(ctx context.Context, guildID string) ([]*models.GuildRole, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GuildRole), args.Error(1)
}

func (m *MockGuildRoleManager) AddMemberRoles(
	ctx context.Context,
	guildID, userID string,
	roleIDs []string,
	reason string,
) error {
	args := m.Called(ctx, guildID, userID, roleIDs, reason)
	return args.Error(0)
}

func (m *MockGuildRoleManager) RemoveMemberRoles(
	ctx context.Context,
	guildID, userID string,
	roleIDs []string,
	reason string,
) error {
	args := m.Called(ctx, guildID, userID, roleIDs, reason)
	return args.Error(0)
}

func (m *MockGuildRoleManager) CreateRole(
	ctx context.Context,
	guildID, name string,
	color int,
	reason string,
) (*models.GuildRole, error) {
	args := m.Called(ctx, guildID, name, color, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildRole), args.Error(1)
}

// MockRoleEventSource records listeners so tests can fire events synchronously
type MockRoleEventSource struct {
	MemberListeners  []func(ctx context.Context, event models.MemberRolesEvent)
	CreatedListeners []func(ctx context.Context, event models.RoleEvent)
	DeletedListeners []func(ctx context.Context, event models.RoleEvent)
	RenamedListeners []func(ctx context.Context, event models.RoleRenameEvent)
}

func (m *MockRoleEventSource) OnMemberRolesUpdated(listener func(ctx context.Context, event models.MemberRolesEvent)) {
	m.MemberListeners = append(m.MemberListeners, listener)
}

func (m *MockRoleEventSource) OnRoleCreated(listener func(ctx context.Context, event models.RoleEvent)) {
	m.CreatedListeners = append(m.CreatedListeners, listener)
}

func (m *MockRoleEventSource) OnRoleDeleted(listener func(ctx context.Context, event models.RoleEvent)) {
	m.DeletedListeners = append(m.DeletedListeners, listener)
}

func (m *MockRoleEventSource) OnRoleRenamed(listener func(ctx context.Context, event models.RoleRenameEvent)) {
	m.RenamedListeners = append(m.RenamedListeners, listener)
}
