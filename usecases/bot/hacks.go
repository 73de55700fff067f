package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/mo"

	"nrgbot/clients"
	"nrgbot/models"
	"nrgbot/services"
)

const defaultHackListLimit = models.MaxEmbedsPerMessage

// HacksCommand serves /hacks list and /hacks view and owns the hack_ buttons
type HacksCommand struct {
	hacks     services.HacksRepository
	webAppURL string
}

func NewHacksCommand(hacks services.HacksRepository, webAppURL string) *HacksCommand {
	return &HacksCommand{hacks: hacks, webAppURL: webAppURL}
}

func (c *HacksCommand) Definition() models.CommandDefinition {
	return models.CommandDefinition{
		Name:        "hacks",
		Description: "Browse hacks from the web app",
		Subcommands: []models.SubcommandDefinition{
			{
				Name:        "list",
				Description: "List the latest hacks",
				Options: []models.CommandOption{
					{Name: "category", Description: "Only show hacks in this category", Type: models.OptionTypeString},
					{Name: "limit", Description: "How many hacks to show (max 10)", Type: models.OptionTypeNumber},
				},
			},
			{
				Name:        "view",
				Description: "Show a single hack",
				Options: []models.CommandOption{
					{Name: "id", Description: "The hack ID", Type: models.OptionTypeString, Required: true},
				},
			},
		},
	}
}

func (c *HacksCommand) ButtonPrefixes() []string {
	return []string{HackButtonPrefix}
}

func (c *HacksCommand) Execute(ctx context.Context, interaction clients.PlatformInteraction) error {
	options := interaction.Options()
	switch options.Subcommand().OrElse("list") {
	case "list":
		return c.list(ctx, interaction, options.GetString("category"), listLimit(options))
	case "view":
		id, ok := options.GetString("id").Get()
		if !ok || strings.TrimSpace(id) == "" {
			return interaction.Reply(ctx, models.NewTextMessage("Please provide a hack ID.", true))
		}
		return c.view(ctx, interaction, strings.TrimSpace(id))
	default:
		return interaction.Reply(ctx, models.NewTextMessage(UnknownSubcommandMessage, true))
	}
}

func (c *HacksCommand) HandleButton(ctx context.Context, interaction clients.PlatformInteraction, buttonID string) error {
	hackID := strings.TrimPrefix(buttonID, HackButtonPrefix)
	if hackID == "" {
		log.Printf("⚠️ Ignoring hack button without an ID")
		return nil
	}
	return c.view(ctx, interaction, hackID)
}

func (c *HacksCommand) list(
	ctx context.Context,
	interaction clients.PlatformInteraction,
	category mo.Option[string],
	limit int,
) error {
	hacks, err := c.hacks.ListHacks(ctx, category, limit)
	if err != nil {
		return fmt.Errorf("failed to list hacks: %w", err)
	}

	title := "Latest hacks"
	if cat, ok := category.Get(); ok {
		title = fmt.Sprintf("Latest hacks in %s", cat)
	}
	return interaction.Reply(ctx, buildHackListMessage(hacks, title, c.webAppURL))
}

func (c *HacksCommand) view(ctx context.Context, interaction clients.PlatformInteraction, hackID string) error {
	maybeHack, err := c.hacks.GetHackByID(ctx, hackID)
	if err != nil {
		return fmt.Errorf("failed to get hack %s: %w", hackID, err)
	}
	hack, ok := maybeHack.Get()
	if !ok {
		return interaction.Reply(ctx, models.NewTextMessage(fmt.Sprintf("Hack `%s` was not found.", hackID), true))
	}
	return interaction.Reply(ctx, buildHackDetailMessage(hack, c.webAppURL))
}

func listLimit(options models.CommandOptions) int {
	limit := int(options.GetNumber("limit").OrElse(defaultHackListLimit))
	if limit <= 0 || limit > defaultHackListLimit {
		return defaultHackListLimit
	}
	return limit
}
