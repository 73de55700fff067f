package slack

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"

	"nrgbot/models"
)

var hacksDefinition = models.CommandDefinition{
	Name: "hacks",
	Subcommands: []models.SubcommandDefinition{
		{
			Name: "list",
			Options: []models.CommandOption{
				{Name: "category", Type: models.OptionTypeString},
				{Name: "limit", Type: models.OptionTypeNumber},
			},
		},
		{
			Name:    "view",
			Options: []models.CommandOption{{Name: "id", Type: models.OptionTypeString, Required: true}},
		},
	},
}

func TestParseCommandText(t *testing.T) {
	t.Run("first token selects subcommand", func(t *testing.T) {
		parsed := parseCommandText(hacksDefinition, "list sleep 5")

		assert.Equal(t, mo.Some("list"), parsed.Subcommand())
		assert.Equal(t, mo.Some("sleep"), parsed.GetString("category"))
		assert.Equal(t, mo.Some(5.0), parsed.GetNumber("limit"))
	})

	t.Run("named tokens bind regardless of position", func(t *testing.T) {
		parsed := parseCommandText(hacksDefinition, "LIST limit:3 category:focus")

		assert.Equal(t, mo.Some("list"), parsed.Subcommand())
		assert.Equal(t, mo.Some("focus"), parsed.GetString("category"))
		assert.Equal(t, mo.Some(3.0), parsed.GetNumber("limit"))
	})

	t.Run("quoted phrases stay together", func(t *testing.T) {
		parsed := parseCommandText(hacksDefinition, `list "deep sleep"`)

		assert.Equal(t, mo.Some("deep sleep"), parsed.GetString("category"))
	})

	t.Run("unknown subcommand yields empty options", func(t *testing.T) {
		parsed := parseCommandText(hacksDefinition, "explode now")

		assert.Empty(t, parsed)
	})

	t.Run("invalid number is dropped", func(t *testing.T) {
		parsed := parseCommandText(hacksDefinition, "list sleep lots")

		assert.Equal(t, mo.Some("sleep"), parsed.GetString("category"))
		assert.True(t, parsed.GetNumber("limit").IsAbsent())
	})

	t.Run("user mentions are unwrapped", func(t *testing.T) {
		def := models.CommandDefinition{
			Name:    "roles",
			Options: []models.CommandOption{{Name: "user", Type: models.OptionTypeUser}},
		}

		parsed := parseCommandText(def, "<@U123ABC|alice>")

		assert.Equal(t, mo.Some("U123ABC"), parsed.GetUser("user"))
		assert.True(t, parsed.Subcommand().IsAbsent())
	})
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, tokenize(`  a "b c"   d `))
	assert.Equal(t, []string{""}, tokenize(`""`))
	assert.Nil(t, tokenize("   "))
}
