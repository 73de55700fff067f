package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sort"
	"strings"

	"nrgbot/clients"
	"nrgbot/metrics"
	"nrgbot/models"
	"nrgbot/utils"
)

const (
	UnknownCommandMessage = "Unknown command"
	GenericErrorMessage   = "Something went wrong while handling your request. Please try again later."
)

// Command is one slash command with its handler
type Command interface {
	Definition() models.CommandDefinition
	Execute(ctx context.Context, interaction clients.PlatformInteraction) error
}

// ButtonCommand is a Command that also owns button IDs. A button is routed to
// it when the ID equals or starts with one of its prefixes.
type ButtonCommand interface {
	Command
	ButtonPrefixes() []string
	HandleButton(ctx context.Context, interaction clients.PlatformInteraction, buttonID string) error
}

type buttonRoute struct {
	prefix  string
	command ButtonCommand
}

// CommandManager routes inbound interactions from every attached platform to
// the registered commands and contains every handler failure.
type CommandManager struct {
	commands  map[string]Command
	buttons   []buttonRoute
	platforms []clients.PlatformClient
	metrics   *metrics.Metrics
}

func NewCommandManager(m *metrics.Metrics, commands ...Command) *CommandManager {
	manager := &CommandManager{
		commands: make(map[string]Command, len(commands)),
		metrics:  m,
	}

	for _, cmd := range commands {
		name := cmd.Definition().Name
		_, exists := manager.commands[name]
		utils.AssertInvariant(!exists, "duplicate command name: "+name)
		manager.commands[name] = cmd

		if bc, ok := cmd.(ButtonCommand); ok {
			for _, prefix := range bc.ButtonPrefixes() {
				for _, route := range manager.buttons {
					utils.AssertInvariant(route.prefix != prefix, "duplicate button prefix: "+prefix)
				}
				manager.buttons = append(manager.buttons, buttonRoute{prefix: prefix, command: bc})
			}
		}
	}

	// longest prefix first so a more specific prefix wins
	sort.SliceStable(manager.buttons, func(i, j int) bool {
		return len(manager.buttons[i].prefix) > len(manager.buttons[j].prefix)
	})

	return manager
}

// AddPlatform attaches a platform adapter. Its handlers are replaced by the manager's.
func (m *CommandManager) AddPlatform(platform clients.PlatformClient) {
	platform.OnCommand(m.HandleCommand)
	platform.OnButton(m.HandleButton)
	m.platforms = append(m.platforms, platform)
	log.Printf("📋 Attached %s platform to command manager", platform.Platform())
}

// Definitions returns every registered definition sorted by name
func (m *CommandManager) Definitions() []models.CommandDefinition {
	definitions := make([]models.CommandDefinition, 0, len(m.commands))
	for _, cmd := range m.commands {
		definitions = append(definitions, cmd.Definition())
	}
	sort.Slice(definitions, func(i, j int) bool { return definitions[i].Name < definitions[j].Name })
	return definitions
}

// DeployCommands registers every definition on every attached platform.
// Missing credentials abort the deploy; other platform errors are logged and
// the remaining platforms are still deployed.
func (m *CommandManager) DeployCommands(ctx context.Context) error {
	definitions := m.Definitions()

	for _, platform := range m.platforms {
		log.Printf("📋 Deploying %d commands to %s", len(definitions), platform.Platform())
		if err := platform.DeployCommands(ctx, definitions); err != nil {
			if errors.Is(err, clients.ErrMissingCredentials) {
				return fmt.Errorf("failed to deploy commands to %s: %w", platform.Platform(), err)
			}
			log.Printf("❌ Failed to deploy commands to %s: %v", platform.Platform(), err)
			continue
		}
		log.Printf("✅ Deployed commands to %s", platform.Platform())
	}

	return nil
}

// HandleCommand routes one command interaction. It never panics and never
// returns an error; failures are logged and answered with a generic message.
func (m *CommandManager) HandleCommand(ctx context.Context, interaction clients.PlatformInteraction) {
	name := interaction.CommandName()
	platform := interaction.Platform()

	cmd, ok := m.commands[name]
	if !ok {
		log.Printf("⚠️ Unknown command %q from %s", name, platform)
		m.metrics.UnknownCommand(platform)
		if err := interaction.Reply(ctx, models.NewTextMessage(UnknownCommandMessage, true)); err != nil {
			log.Printf("❌ Failed to reply to unknown command %q on %s: %v", name, platform, err)
		}
		return
	}

	log.Printf("📋 Handling /%s from %s user %s", name, platform, interaction.User().ID)
	m.metrics.CommandDispatched(platform, name)

	m.contain(ctx, interaction, name, func() error {
		return cmd.Execute(ctx, interaction)
	})
}

// HandleButton routes a button click to the command owning the ID's prefix.
// Unrecognized IDs are ignored.
func (m *CommandManager) HandleButton(ctx context.Context, interaction clients.PlatformInteraction, buttonID string) {
	route, ok := m.findButtonRoute(buttonID)
	if !ok {
		log.Printf("📋 Ignoring button %q from %s", buttonID, interaction.Platform())
		return
	}

	name := route.command.Definition().Name
	m.metrics.ButtonRouted(interaction.Platform(), name)

	m.contain(ctx, interaction, name, func() error {
		return route.command.HandleButton(ctx, interaction, buttonID)
	})
}

func (m *CommandManager) findButtonRoute(buttonID string) (buttonRoute, bool) {
	for _, route := range m.buttons {
		if buttonID == route.prefix || strings.HasPrefix(buttonID, route.prefix) {
			return route, true
		}
	}
	return buttonRoute{}, false
}

// contain runs fn and turns an error or panic into a generic ephemeral reply
func (m *CommandManager) contain(
	ctx context.Context,
	interaction clients.PlatformInteraction,
	name string,
	fn func() error,
) {
	platform := interaction.Platform()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				log.Printf("❌ Panic in /%s on %s: %v\n%s", name, platform, r, debug.Stack())
			}
		}()
		return fn()
	}()
	if err == nil {
		return
	}

	log.Printf("❌ Command /%s failed on %s: %v", name, platform, err)
	m.metrics.CommandFailed(platform, name)
	m.replyWithError(ctx, interaction, name)
}

func (m *CommandManager) replyWithError(ctx context.Context, interaction clients.PlatformInteraction, name string) {
	msg := models.NewTextMessage(GenericErrorMessage, true)
	platform := interaction.Platform()

	if interaction.Replied() {
		if err := interaction.FollowUp(ctx, msg); err != nil {
			log.Printf("❌ Failed to send error follow-up for /%s on %s: %v", name, platform, err)
		}
		return
	}

	if err := interaction.Reply(ctx, msg); err != nil {
		log.Printf("⚠️ Failed to send error reply for /%s on %s, trying follow-up: %v", name, platform, err)
		if err := interaction.FollowUp(ctx, msg); err != nil {
			log.Printf("❌ Failed to send error follow-up for /%s on %s: %v", name, platform, err)
		}
	}
}
