package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gosimple/slug"
	"github.com/samber/mo"

	"nrgbot/clients"
	"nrgbot/models"
	"nrgbot/services"
	"nrgbot/utils"
)

// CategoriesCommand lists hack categories and owns the category_ buttons
type CategoriesCommand struct {
	hacks     services.HacksRepository
	webAppURL string
}

func NewCategoriesCommand(hacks services.HacksRepository, webAppURL string) *CategoriesCommand {
	return &CategoriesCommand{hacks: hacks, webAppURL: webAppURL}
}

func (c *CategoriesCommand) Definition() models.CommandDefinition {
	return models.CommandDefinition{
		Name:        "categories",
		Description: "Browse hack categories",
	}
}

func (c *CategoriesCommand) ButtonPrefixes() []string {
	return []string{CategoryButtonPrefix}
}

func (c *CategoriesCommand) Execute(ctx context.Context, interaction clients.PlatformInteraction) error {
	categories, err := c.hacks.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		return interaction.Reply(ctx, models.NewTextMessage("No categories yet.", true))
	}

	msg := models.PlatformMessage{
		Embeds: []models.PlatformEmbed{{
			Title:       "Categories",
			Description: "Pick a category to see its hacks.",
			Color:       mo.Some(categoryColor),
			Footer:      mo.Some(fmt.Sprintf("%d categories", len(categories))),
		}},
	}
	for _, category := range categories {
		if len(msg.Buttons) == maxButtons {
			log.Printf("⚠️ Only showing the first %d of %d categories", maxButtons, len(categories))
			break
		}
		msg.Buttons = append(msg.Buttons, models.PlatformButton{
			ID:    CategoryButtonID(category),
			Label: utils.Truncate(category, 80),
			Style: models.ButtonStyleSecondary,
		})
	}
	return interaction.Reply(ctx, msg)
}

func (c *CategoriesCommand) HandleButton(ctx context.Context, interaction clients.PlatformInteraction, buttonID string) error {
	categorySlug := strings.TrimPrefix(buttonID, CategoryButtonPrefix)

	category, err := c.resolveCategory(ctx, categorySlug)
	if err != nil {
		return err
	}
	name, ok := category.Get()
	if !ok {
		return interaction.Reply(ctx, models.NewTextMessage("That category no longer exists.", true))
	}

	hacks, err := c.hacks.ListHacks(ctx, mo.Some(name), defaultHackListLimit)
	if err != nil {
		return fmt.Errorf("failed to list hacks in category %s: %w", name, err)
	}
	return interaction.Reply(ctx, buildHackListMessage(hacks, fmt.Sprintf("Hacks in %s", name), c.webAppURL))
}

// resolveCategory maps a button slug back to the stored category name
func (c *CategoriesCommand) resolveCategory(ctx context.Context, categorySlug string) (mo.Option[string], error) {
	if categorySlug == "" {
		return mo.None[string](), nil
	}
	categories, err := c.hacks.ListCategories(ctx)
	if err != nil {
		return mo.None[string](), fmt.Errorf("failed to list categories: %w", err)
	}
	for _, category := range categories {
		if slug.Make(category) == categorySlug {
			return mo.Some(category), nil
		}
	}
	return mo.None[string](), nil
}
