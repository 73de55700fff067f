package slack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/mo"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"nrgbot/clients"
	"nrgbot/config"
	"nrgbot/core"
	"nrgbot/models"
)

// API is the subset of *slack.Client the adapter talks to
type API interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	UpdateMessageContext(
		ctx context.Context,
		channelID, timestamp string,
		options ...slack.MsgOption,
	) (string, string, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
}

// WebhookPoster posts a message to a response or incoming-webhook URL
type WebhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// SlackClient is the socket-mode adapter
type SlackClient struct {
	api         API
	socket      *socketmode.Client
	cfg         config.SlackConfig
	postWebhook WebhookPoster
	ack         func(req socketmode.Request)

	handlersMu     sync.RWMutex
	commandHandler clients.CommandHandler
	buttonHandler  clients.ButtonHandler

	definitionsMu sync.RWMutex
	definitions   map[string]models.CommandDefinition

	ready  atomic.Bool
	cancel context.CancelFunc
}

var _ clients.PlatformClient = (*SlackClient)(nil)

// NewSlackClient creates a socket-mode Slack client from the bot and app-level tokens
func NewSlackClient(cfg config.SlackConfig) *SlackClient {
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	socket := socketmode.New(api)

	c := NewSlackClientWithAPI(cfg, api)
	c.socket = socket
	c.ack = func(req socketmode.Request) { socket.Ack(req) }
	return c
}

// NewSlackClientWithAPI creates a Slack client without a socket connection
func NewSlackClientWithAPI(cfg config.SlackConfig, api API) *SlackClient {
	return &SlackClient{
		api:         api,
		cfg:         cfg,
		postWebhook: slack.PostWebhookContext,
		ack:         func(socketmode.Request) {},
		definitions: make(map[string]models.CommandDefinition),
	}
}

func (c *SlackClient) Platform() models.Platform {
	return models.PlatformSlack
}

func (c *SlackClient) Start(ctx context.Context) error {
	if !c.cfg.IsConfigured() {
		return clients.ErrMissingCredentials
	}
	if c.socket == nil {
		return errors.New("slack client has no socket-mode connection")
	}

	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate Slack bot: %w", err)
	}
	log.Printf("📋 Starting to open Slack socket-mode connection as %s (team %s)", auth.User, auth.TeamID)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.consumeEvents(runCtx)
	go func() {
		if err := c.socket.RunContext(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("❌ Slack socket-mode connection stopped: %v", err)
		}
		c.ready.Store(false)
	}()

	return nil
}

func (c *SlackClient) Stop() error {
	c.ready.Store(false)
	if c.cancel != nil {
		c.cancel()
	}
	log.Printf("✅ Slack socket-mode connection closed")
	return nil
}

func (c *SlackClient) IsReady() bool {
	return c.ready.Load()
}

func (c *SlackClient) OnCommand(handler clients.CommandHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.commandHandler = handler
}

func (c *SlackClient) OnButton(handler clients.ButtonHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.buttonHandler = handler
}

// DeployCommands only records the definitions used to parse slash-command
// text. Slack slash commands are registered in the app manifest.
func (c *SlackClient) DeployCommands(_ context.Context, definitions []models.CommandDefinition) error {
	if !c.cfg.IsConfigured() {
		return clients.ErrMissingCredentials
	}

	c.definitionsMu.Lock()
	defer c.definitionsMu.Unlock()
	c.definitions = make(map[string]models.CommandDefinition, len(definitions))
	for _, def := range definitions {
		c.definitions[def.Name] = def
	}

	log.Printf("📋 Slack commands come from the app manifest - stored %d definitions for parsing", len(definitions))
	return nil
}

func (c *SlackClient) SendMessage(ctx context.Context, channelID string, msg models.PlatformMessage) error {
	channel, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		return fmt.Errorf("failed to resolve channel %s: %w", channelID, err)
	}
	if channel.IsArchived {
		return fmt.Errorf("channel %s is archived: %w", channelID, clients.ErrUnsupportedChannel)
	}

	if _, _, err := c.api.PostMessageContext(ctx, channelID, messageOptions(msg)...); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return nil
}

func (c *SlackClient) GetUser(ctx context.Context, userID string) (mo.Option[models.PlatformUser], error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[models.PlatformUser](), nil
		}
		return mo.None[models.PlatformUser](), fmt.Errorf("failed to get Slack user %s: %w", userID, err)
	}
	return mo.Some(toPlatformUser(user)), nil
}

func (c *SlackClient) GetChannel(ctx context.Context, channelID string) (mo.Option[models.PlatformChannel], error) {
	channel, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[models.PlatformChannel](), nil
		}
		return mo.None[models.PlatformChannel](), fmt.Errorf("failed to get Slack channel %s: %w", channelID, err)
	}
	return mo.Some(toPlatformChannel(channel)), nil
}

func (c *SlackClient) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.socket.Events:
			if !ok {
				return
			}
			c.handleEvent(ctx, evt)
		}
	}
}

func (c *SlackClient) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		log.Printf("📋 Connecting to Slack with socket mode")
	case socketmode.EventTypeConnected:
		c.ready.Store(true)
		log.Printf("✅ Slack socket-mode connection established")
	case socketmode.EventTypeConnectionError, socketmode.EventTypeDisconnect:
		c.ready.Store(false)
		log.Printf("⚠️ Slack socket-mode connection lost, waiting for reconnect")
	case socketmode.EventTypeInvalidAuth:
		c.ready.Store(false)
		log.Printf("❌ Slack rejected the app-level token")
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		c.acknowledge(evt)
		go c.handleSlashCommand(ctx, cmd)
	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		c.acknowledge(evt)
		go c.handleInteractive(ctx, callback)
	}
}

func (c *SlackClient) acknowledge(evt socketmode.Event) {
	if evt.Request != nil {
		c.ack(*evt.Request)
	}
}

func (c *SlackClient) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	c.handlersMu.RLock()
	handler := c.commandHandler
	c.handlersMu.RUnlock()
	if handler == nil {
		log.Printf("⚠️ No command handler registered, dropping Slack command %s", cmd.Command)
		return
	}

	name := strings.TrimPrefix(cmd.Command, "/")

	c.definitionsMu.RLock()
	def, known := c.definitions[name]
	c.definitionsMu.RUnlock()

	options := models.CommandOptions{}
	if known {
		options = parseCommandText(def, cmd.Text)
	}

	channelType := models.ChannelTypeText
	if cmd.ChannelName == "directmessage" || strings.HasPrefix(cmd.ChannelID, "D") {
		channelType = models.ChannelTypeDM
	}

	handler(ctx, &slackInteraction{
		api:         c.api,
		postWebhook: c.postWebhook,
		user: models.PlatformUser{
			ID:       cmd.UserID,
			Username: cmd.UserName,
			Platform: models.PlatformSlack,
		},
		channel: models.PlatformChannel{
			ID:       cmd.ChannelID,
			Name:     cmd.ChannelName,
			Type:     channelType,
			Platform: models.PlatformSlack,
		},
		teamID:      cmd.TeamID,
		commandName: name,
		options:     options,
		responseURL: cmd.ResponseURL,
	})
}

func (c *SlackClient) handleInteractive(ctx context.Context, callback slack.InteractionCallback) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return
	}

	c.handlersMu.RLock()
	handler := c.buttonHandler
	c.handlersMu.RUnlock()
	if handler == nil {
		return
	}

	channelID := callback.Channel.ID
	if channelID == "" {
		channelID = callback.Container.ChannelID
	}
	channelType := models.ChannelTypeText
	if callback.Channel.IsIM || callback.Channel.IsMpIM {
		channelType = models.ChannelTypeDM
	}

	for _, action := range callback.ActionCallback.BlockActions {
		if action == nil || action.ActionID == "" {
			continue
		}
		handler(ctx, &slackInteraction{
			api:         c.api,
			postWebhook: c.postWebhook,
			user: models.PlatformUser{
				ID:       callback.User.ID,
				Username: callback.User.Name,
				Platform: models.PlatformSlack,
			},
			channel: models.PlatformChannel{
				ID:       channelID,
				Name:     callback.Channel.Name,
				Type:     channelType,
				Platform: models.PlatformSlack,
			},
			teamID:      callback.Team.ID,
			commandName: action.ActionID,
			options:     models.CommandOptions{},
			responseURL: callback.ResponseURL,
		}, action.ActionID)
	}
}

func toPlatformUser(user *slack.User) models.PlatformUser {
	u := models.PlatformUser{
		ID:       user.ID,
		Username: user.Name,
		Platform: models.PlatformSlack,
	}
	switch {
	case user.Profile.DisplayName != "":
		u.DisplayName = mo.Some(user.Profile.DisplayName)
	case user.Profile.RealName != "":
		u.DisplayName = mo.Some(user.Profile.RealName)
	}
	if user.Profile.Image192 != "" {
		u.AvatarURL = mo.Some(user.Profile.Image192)
	}
	return u
}

func toPlatformChannel(channel *slack.Channel) models.PlatformChannel {
	channelType := models.ChannelTypeText
	if channel.IsIM || channel.IsMpIM {
		channelType = models.ChannelTypeDM
	}
	return models.PlatformChannel{
		ID:       channel.ID,
		Name:     channel.Name,
		Type:     channelType,
		Platform: models.PlatformSlack,
	}
}
