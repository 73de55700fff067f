package slack

import (
	"log"
	"regexp"
	"strings"
	"unicode"

	"nrgbot/models"
)

var mentionRegex = regexp.MustCompile(`^<[@#]([A-Z0-9]+)(?:\|[^>]*)?>$`)

// parseCommandText binds slash-command text to the command's options. The
// first token selects the subcommand when the command has subcommands;
// name:value tokens bind by name and bare tokens bind positionally.
func parseCommandText(def models.CommandDefinition, text string) models.CommandOptions {
	parsed := models.CommandOptions{}
	tokens := tokenize(text)

	subcommand := ""
	if len(def.Subcommands) > 0 {
		if len(tokens) == 0 || !def.HasSubcommand(strings.ToLower(tokens[0])) {
			return parsed
		}
		subcommand = strings.ToLower(tokens[0])
		parsed[models.SubcommandOptionKey] = models.StringValue(subcommand)
		tokens = tokens[1:]
	}

	options := def.OptionsFor(subcommand)
	byName := make(map[string]models.CommandOption, len(options))
	for _, opt := range options {
		byName[opt.Name] = opt
	}

	var positional []string
	for _, token := range tokens {
		if name, value, ok := strings.Cut(token, ":"); ok {
			if opt, known := byName[strings.ToLower(name)]; known {
				bindOption(parsed, opt, value)
				continue
			}
		}
		positional = append(positional, token)
	}

	for _, opt := range options {
		if len(positional) == 0 {
			break
		}
		if _, bound := parsed[opt.Name]; bound {
			continue
		}
		bindOption(parsed, opt, positional[0])
		positional = positional[1:]
	}

	// Leftover words extend the last bound string option so unquoted phrases survive
	if len(positional) > 0 && len(options) > 0 {
		last := options[len(options)-1]
		if v, ok := parsed[last.Name].(models.StringValue); ok {
			parsed[last.Name] = models.StringValue(string(v) + " " + strings.Join(positional, " "))
		}
	}

	return parsed
}

func bindOption(parsed models.CommandOptions, opt models.CommandOption, raw string) {
	if m := mentionRegex.FindStringSubmatch(raw); m != nil &&
		(opt.Type == models.OptionTypeUser || opt.Type == models.OptionTypeChannel) {
		raw = m[1]
	}

	value, err := models.ParseOptionValue(opt, raw)
	if err != nil {
		log.Printf("⚠️ Ignoring Slack option %s: %v", opt.Name, err)
		return
	}
	parsed[opt.Name] = value
}

// tokenize splits on whitespace, keeping double-quoted phrases together
func tokenize(text string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		pending bool
	)

	flush := func() {
		if pending {
			tokens = append(tokens, current.String())
			current.Reset()
			pending = false
		}
	}

	for _, r := range text {
		switch {
		case r == '"' || r == '“' || r == '”':
			quoted = !quoted
			pending = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()

	return tokens
}
