package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nrgbot/clients"
	"nrgbot/models"
)

func newCommandInteraction(name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "int-1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Member: &discordgo.Member{
			Nick: "Nicky",
			User: &discordgo.User{ID: "user-1", Username: "nick"},
		},
		Data: discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func TestDiscordInteraction_Fields(t *testing.T) {
	session := &MockSession{}
	i := newDiscordInteraction(session, newCommandInteraction("hacks"))

	assert.Equal(t, "hacks", i.CommandName())
	assert.Equal(t, models.PlatformDiscord, i.Platform())
	assert.Equal(t, models.PlatformDiscord, i.User().Platform)
	assert.Equal(t, "Nicky", i.User().Name())
	assert.Equal(t, mo.Some("guild-1"), i.GuildID())
	assert.Equal(t, models.ChannelTypeText, i.Channel().Type)
	assert.False(t, i.Replied())
}

func TestDiscordInteraction_Reply(t *testing.T) {
	ctx := context.Background()

	t.Run("second reply routes to follow-up", func(t *testing.T) {
		// Arrange
		session := &MockSession{}
		raw := newCommandInteraction("hacks")
		session.On("InteractionRespond", raw, mock.Anything).Return(nil).Once()
		session.On("FollowupMessageCreate", raw, true, mock.Anything).Return(&discordgo.Message{}, nil).Once()
		i := newDiscordInteraction(session, raw)

		// Act
		require.NoError(t, i.Reply(ctx, models.NewTextMessage("first", false)))
		require.NoError(t, i.Reply(ctx, models.NewTextMessage("second", true)))

		// Assert
		session.AssertNumberOfCalls(t, "InteractionRespond", 1)
		session.AssertNumberOfCalls(t, "FollowupMessageCreate", 1)
		session.AssertExpectations(t)
		assert.True(t, i.Replied())
	})

	t.Run("reply after defer edits the deferred response", func(t *testing.T) {
		session := &MockSession{}
		raw := newCommandInteraction("hacks")
		session.On("InteractionRespond", raw, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
			return r.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource &&
				r.Data.Flags == discordgo.MessageFlagsEphemeral
		})).Return(nil).Once()
		session.On("InteractionResponseEdit", raw, mock.MatchedBy(func(e *discordgo.WebhookEdit) bool {
			return e.Content != nil && *e.Content == "done"
		})).Return(&discordgo.Message{}, nil).Once()
		i := newDiscordInteraction(session, raw)

		require.NoError(t, i.DeferReply(ctx, true))
		require.NoError(t, i.Reply(ctx, models.NewTextMessage("done", true)))

		session.AssertExpectations(t)
		session.AssertNotCalled(t, "FollowupMessageCreate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ephemeral reply sets flag", func(t *testing.T) {
		session := &MockSession{}
		raw := newCommandInteraction("hacks")
		session.On("InteractionRespond", raw, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
			return r.Type == discordgo.InteractionResponseChannelMessageWithSource &&
				r.Data.Flags == discordgo.MessageFlagsEphemeral &&
				r.Data.Content == "secret"
		})).Return(nil).Once()
		i := newDiscordInteraction(session, raw)

		require.NoError(t, i.Reply(ctx, models.NewTextMessage("secret", true)))

		session.AssertExpectations(t)
	})

	t.Run("failed reply keeps state unreplied", func(t *testing.T) {
		session := &MockSession{}
		raw := newCommandInteraction("hacks")
		session.On("InteractionRespond", raw, mock.Anything).Return(assert.AnError).Once()
		i := newDiscordInteraction(session, raw)

		err := i.Reply(ctx, models.NewTextMessage("x", false))

		require.Error(t, err)
		assert.False(t, i.Replied())
	})
}

func TestDiscordInteraction_DeferReply(t *testing.T) {
	t.Run("no-op after reply", func(t *testing.T) {
		session := &MockSession{}
		raw := newCommandInteraction("hacks")
		session.On("InteractionRespond", raw, mock.Anything).Return(nil).Once()
		i := newDiscordInteraction(session, raw)

		require.NoError(t, i.Reply(context.Background(), models.NewTextMessage("x", false)))
		require.NoError(t, i.DeferReply(context.Background(), false))
		require.NoError(t, i.DeferReply(context.Background(), false))

		session.AssertNumberOfCalls(t, "InteractionRespond", 1)
	})
}

func TestDiscordInteraction_EditReply(t *testing.T) {
	t.Run("fails without a reply", func(t *testing.T) {
		session := &MockSession{}
		i := newDiscordInteraction(session, newCommandInteraction("hacks"))

		err := i.EditReply(context.Background(), models.NewTextMessage("x", false))

		assert.ErrorIs(t, err, clients.ErrNoReply)
		session.AssertNotCalled(t, "InteractionResponseEdit", mock.Anything, mock.Anything)
	})

	t.Run("follow-up fails without a reply", func(t *testing.T) {
		session := &MockSession{}
		i := newDiscordInteraction(session, newCommandInteraction("hacks"))

		err := i.FollowUp(context.Background(), models.NewTextMessage("x", false))

		assert.ErrorIs(t, err, clients.ErrNoReply)
	})
}
