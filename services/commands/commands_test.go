package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nrgbot/clients"
	"nrgbot/models"
)

type stubCommand struct {
	name    string
	execute func(ctx context.Context, i clients.PlatformInteraction) error
}

func (c *stubCommand) Definition() models.CommandDefinition {
	return models.CommandDefinition{Name: c.name, Description: c.name}
}

func (c *stubCommand) Execute(ctx context.Context, i clients.PlatformInteraction) error {
	if c.execute == nil {
		return nil
	}
	return c.execute(ctx, i)
}

type stubButtonCommand struct {
	stubCommand
	prefixes []string
	clicked  []string
	err      error
}

func (c *stubButtonCommand) ButtonPrefixes() []string { return c.prefixes }

func (c *stubButtonCommand) HandleButton(_ context.Context, _ clients.PlatformInteraction, buttonID string) error {
	c.clicked = append(c.clicked, buttonID)
	return c.err
}

func newInteraction(command string) *clients.MockPlatformInteraction {
	return &clients.MockPlatformInteraction{
		UserValue:        models.PlatformUser{ID: "u1", Username: "alice", Platform: models.PlatformDiscord},
		CommandNameValue: command,
		PlatformValue:    models.PlatformDiscord,
	}
}

func genericError() models.PlatformMessage {
	return models.NewTextMessage(GenericErrorMessage, true)
}

func TestNewCommandManager(t *testing.T) {
	t.Run("duplicate names panic", func(t *testing.T) {
		assert.Panics(t, func() {
			NewCommandManager(nil, &stubCommand{name: "hacks"}, &stubCommand{name: "hacks"})
		})
	})

	t.Run("duplicate button prefixes panic", func(t *testing.T) {
		assert.Panics(t, func() {
			NewCommandManager(nil,
				&stubButtonCommand{stubCommand: stubCommand{name: "a"}, prefixes: []string{"hack_"}},
				&stubButtonCommand{stubCommand: stubCommand{name: "b"}, prefixes: []string{"hack_"}},
			)
		})
	})

	t.Run("definitions are sorted by name", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{name: "roles"}, &stubCommand{name: "hacks"})

		defs := manager.Definitions()

		require.Len(t, defs, 2)
		assert.Equal(t, "hacks", defs[0].Name)
		assert.Equal(t, "roles", defs[1].Name)
	})
}

func TestCommandManager_HandleCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown command replies ephemerally", func(t *testing.T) {
		// Arrange
		executed := false
		manager := NewCommandManager(nil, &stubCommand{
			name:    "hacks",
			execute: func(context.Context, clients.PlatformInteraction) error { executed = true; return nil },
		})
		interaction := newInteraction("doesnotexist")
		interaction.On("Reply", ctx, models.NewTextMessage(UnknownCommandMessage, true)).Return(nil).Once()

		// Act
		assert.NotPanics(t, func() { manager.HandleCommand(ctx, interaction) })

		// Assert
		interaction.AssertExpectations(t)
		assert.False(t, executed)
	})

	t.Run("successful command sends nothing extra", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{name: "hacks"})
		interaction := newInteraction("hacks")

		manager.HandleCommand(ctx, interaction)

		interaction.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything)
	})

	t.Run("handler error becomes generic reply", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{
			name: "hacks",
			execute: func(context.Context, clients.PlatformInteraction) error {
				return errors.New("pq: connection refused")
			},
		})
		interaction := newInteraction("hacks")
		interaction.On("Replied").Return(false)
		interaction.On("Reply", ctx, genericError()).Return(nil).Once()

		manager.HandleCommand(ctx, interaction)

		interaction.AssertExpectations(t)
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{
			name: "hacks",
			execute: func(context.Context, clients.PlatformInteraction) error {
				var hacks []string
				_ = hacks[3]
				return nil
			},
		})
		interaction := newInteraction("hacks")
		interaction.On("Replied").Return(false)
		interaction.On("Reply", ctx, genericError()).Return(nil).Once()

		assert.NotPanics(t, func() { manager.HandleCommand(ctx, interaction) })

		interaction.AssertExpectations(t)
	})

	t.Run("error after reply uses follow-up", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{
			name: "roles",
			execute: func(ctx context.Context, i clients.PlatformInteraction) error {
				_ = i.DeferReply(ctx, true)
				return errors.New("discord: missing permissions")
			},
		})
		interaction := newInteraction("roles")
		interaction.On("DeferReply", ctx, true).Return(nil)
		interaction.On("Replied").Return(true)
		interaction.On("FollowUp", ctx, genericError()).Return(nil).Once()

		manager.HandleCommand(ctx, interaction)

		interaction.AssertExpectations(t)
		interaction.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything)
	})

	t.Run("failed error reply falls back to follow-up", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{
			name:    "hacks",
			execute: func(context.Context, clients.PlatformInteraction) error { return errors.New("boom") },
		})
		interaction := newInteraction("hacks")
		interaction.On("Replied").Return(false)
		interaction.On("Reply", ctx, genericError()).Return(errors.New("interaction expired"))
		interaction.On("FollowUp", ctx, genericError()).Return(errors.New("interaction expired"))

		assert.NotPanics(t, func() { manager.HandleCommand(ctx, interaction) })

		interaction.AssertExpectations(t)
	})
}

func TestCommandManager_HandleButton(t *testing.T) {
	ctx := context.Background()

	hacks := &stubButtonCommand{stubCommand: stubCommand{name: "hacks"}, prefixes: []string{"hack_"}}
	categories := &stubButtonCommand{stubCommand: stubCommand{name: "categories"}, prefixes: []string{"category_"}}
	manager := NewCommandManager(nil, hacks, categories)

	t.Run("prefix routes to owner", func(t *testing.T) {
		manager.HandleButton(ctx, newInteraction(""), "hack_123")
		manager.HandleButton(ctx, newInteraction(""), "category_sleep")

		assert.Equal(t, []string{"hack_123"}, hacks.clicked)
		assert.Equal(t, []string{"category_sleep"}, categories.clicked)
	})

	t.Run("unknown prefix is ignored", func(t *testing.T) {
		interaction := newInteraction("")

		manager.HandleButton(ctx, interaction, "mystery_1")

		interaction.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything)
		assert.Len(t, hacks.clicked, 1)
	})

	t.Run("button error becomes generic reply", func(t *testing.T) {
		failing := &stubButtonCommand{
			stubCommand: stubCommand{name: "hacks"},
			prefixes:    []string{"hack_"},
			err:         errors.New("boom"),
		}
		manager := NewCommandManager(nil, failing)
		interaction := newInteraction("")
		interaction.On("Replied").Return(false)
		interaction.On("Reply", ctx, genericError()).Return(nil).Once()

		manager.HandleButton(ctx, interaction, "hack_9")

		interaction.AssertExpectations(t)
	})
}

func TestCommandManager_AddPlatformAndDeploy(t *testing.T) {
	ctx := context.Background()

	t.Run("registers handlers and deploys definitions", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{name: "hacks"})
		platform := &clients.MockPlatformClient{}
		platform.On("Platform").Return(models.PlatformDiscord)
		platform.On("DeployCommands", ctx, manager.Definitions()).Return(nil).Once()

		manager.AddPlatform(platform)
		err := manager.DeployCommands(ctx)

		require.NoError(t, err)
		assert.NotNil(t, platform.CommandHandler)
		assert.NotNil(t, platform.ButtonHandler)
		platform.AssertExpectations(t)
	})

	t.Run("missing credentials are fatal", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{name: "hacks"})
		platform := &clients.MockPlatformClient{}
		platform.On("Platform").Return(models.PlatformDiscord)
		platform.On("DeployCommands", ctx, mock.Anything).Return(clients.ErrMissingCredentials)

		manager.AddPlatform(platform)
		err := manager.DeployCommands(ctx)

		assert.ErrorIs(t, err, clients.ErrMissingCredentials)
	})

	t.Run("other platform errors do not stop later platforms", func(t *testing.T) {
		manager := NewCommandManager(nil, &stubCommand{name: "hacks"})
		discord := &clients.MockPlatformClient{}
		discord.On("Platform").Return(models.PlatformDiscord)
		discord.On("DeployCommands", ctx, mock.Anything).Return(errors.New("rate limited"))
		slack := &clients.MockPlatformClient{}
		slack.On("Platform").Return(models.PlatformSlack)
		slack.On("DeployCommands", ctx, mock.Anything).Return(nil).Once()

		manager.AddPlatform(discord)
		manager.AddPlatform(slack)
		err := manager.DeployCommands(ctx)

		require.NoError(t, err)
		slack.AssertExpectations(t)
	})

	t.Run("dispatch through attached platform handler", func(t *testing.T) {
		called := false
		manager := NewCommandManager(nil, &stubCommand{
			name:    "hacks",
			execute: func(context.Context, clients.PlatformInteraction) error { called = true; return nil },
		})
		platform := &clients.MockPlatformClient{}
		platform.On("Platform").Return(models.PlatformSlack)

		manager.AddPlatform(platform)
		platform.CommandHandler(ctx, newInteraction("hacks"))

		assert.True(t, called)
	})
}
