package slack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/mo"

	"nrgbot/clients"
	"nrgbot/models"
)

// slackInteraction wraps one slash command or block action. Slack has no
// deferred message: the socket-mode ack is the acknowledgement, so a deferred
// interaction posts its first real message on Reply or EditReply.
type slackInteraction struct {
	api         API
	postWebhook WebhookPoster

	user        models.PlatformUser
	channel     models.PlatformChannel
	teamID      string
	commandName string
	options     models.CommandOptions
	responseURL string

	mu            sync.Mutex
	deferred      bool
	replied       bool
	lastTS        string
	lastEphemeral bool
}

func (s *slackInteraction) User() models.PlatformUser       { return s.user }
func (s *slackInteraction) Channel() models.PlatformChannel { return s.channel }
func (s *slackInteraction) CommandName() string             { return s.commandName }
func (s *slackInteraction) Options() models.CommandOptions  { return s.options }
func (s *slackInteraction) Platform() models.Platform       { return models.PlatformSlack }

func (s *slackInteraction) GuildID() mo.Option[string] {
	if s.teamID == "" {
		return mo.None[string]()
	}
	return mo.Some(s.teamID)
}

func (s *slackInteraction) Replied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deferred || s.replied
}

func (s *slackInteraction) Reply(ctx context.Context, msg models.PlatformMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.post(ctx, msg); err != nil {
		return err
	}
	s.replied = true
	return nil
}

func (s *slackInteraction) DeferReply(_ context.Context, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.replied {
		s.deferred = true
	}
	return nil
}

// EditReply updates the last message sent. Ephemeral messages have no
// timestamp that chat.update accepts, so they are replaced through the
// response URL instead.
func (s *slackInteraction) EditReply(ctx context.Context, msg models.PlatformMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.deferred && !s.replied {
		return clients.ErrNoReply
	}

	if !s.replied {
		if err := s.post(ctx, msg); err != nil {
			return err
		}
		s.replied = true
		return nil
	}

	if s.lastEphemeral {
		if s.responseURL == "" {
			return errors.New("ephemeral Slack reply cannot be edited without a response URL")
		}
		if err := s.postWebhook(ctx, s.responseURL, toWebhookMessage(msg, true)); err != nil {
			return fmt.Errorf("failed to replace ephemeral Slack reply: %w", err)
		}
		return nil
	}

	if _, _, _, err := s.api.UpdateMessageContext(ctx, s.channel.ID, s.lastTS, messageOptions(msg)...); err != nil {
		return fmt.Errorf("failed to update Slack message: %w", err)
	}
	return nil
}

func (s *slackInteraction) FollowUp(ctx context.Context, msg models.PlatformMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.deferred && !s.replied {
		return clients.ErrNoReply
	}
	if err := s.post(ctx, msg); err != nil {
		return err
	}
	s.replied = true
	return nil
}

func (s *slackInteraction) post(ctx context.Context, msg models.PlatformMessage) error {
	if msg.Ephemeral {
		ts, err := s.api.PostEphemeralContext(ctx, s.channel.ID, s.user.ID, messageOptions(msg)...)
		if err != nil {
			return fmt.Errorf("failed to post ephemeral Slack message: %w", err)
		}
		s.lastTS = ts
		s.lastEphemeral = true
		return nil
	}

	_, ts, err := s.api.PostMessageContext(ctx, s.channel.ID, messageOptions(msg)...)
	if err != nil {
		return fmt.Errorf("failed to post Slack message: %w", err)
	}
	s.lastTS = ts
	s.lastEphemeral = false
	return nil
}
