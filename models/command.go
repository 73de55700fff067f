package models

import (
	"fmt"
	"strconv"

	"github.com/samber/mo"
)

// SubcommandOptionKey is the reserved key the selected subcommand is surfaced under
const SubcommandOptionKey = "subcommand"

type OptionType string

const (
	OptionTypeString  OptionType = "string"
	OptionTypeNumber  OptionType = "number"
	OptionTypeBoolean OptionType = "boolean"
	OptionTypeUser    OptionType = "user"
	OptionTypeChannel OptionType = "channel"
)

type OptionChoice struct {
	Name  string
	Value string
}

type CommandOption struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	Choices     []OptionChoice
}

type SubcommandDefinition struct {
	Name        string
	Description string
	Options     []CommandOption
}

// CommandDefinition is built once at startup and never mutated afterwards.
// Options are only used when the command has no subcommands.
type CommandDefinition struct {
	Name        string
	Description string
	Subcommands []SubcommandDefinition
	Options     []CommandOption
}

// OptionsFor returns the options that apply to the given subcommand, or the
// top-level options when the command has no subcommands.
func (d CommandDefinition) OptionsFor(subcommand string) []CommandOption {
	if len(d.Subcommands) == 0 {
		return d.Options
	}
	for _, sub := range d.Subcommands {
		if sub.Name == subcommand {
			return sub.Options
		}
	}
	return nil
}

// HasSubcommand reports whether name is one of the command's subcommands
func (d CommandDefinition) HasSubcommand(name string) bool {
	for _, sub := range d.Subcommands {
		if sub.Name == name {
			return true
		}
	}
	return false
}

// OptionValue is a sealed union of the supported option kinds
type OptionValue interface {
	Type() OptionType
	String() string
}

type StringValue string

func (v StringValue) Type() OptionType { return OptionTypeString }
func (v StringValue) String() string   { return string(v) }

type NumberValue float64

func (v NumberValue) Type() OptionType { return OptionTypeNumber }
func (v NumberValue) String() string   { return strconv.FormatFloat(float64(v), 'f', -1, 64) }

type BoolValue bool

func (v BoolValue) Type() OptionType { return OptionTypeBoolean }
func (v BoolValue) String() string   { return strconv.FormatBool(bool(v)) }

// UserValue holds a platform-scoped user ID
type UserValue string

func (v UserValue) Type() OptionType { return OptionTypeUser }
func (v UserValue) String() string   { return string(v) }

// ChannelValue holds a platform-scoped channel ID
type ChannelValue string

func (v ChannelValue) Type() OptionType { return OptionTypeChannel }
func (v ChannelValue) String() string   { return string(v) }

// ParseOptionValue converts raw text into the option kind declared by opt
func ParseOptionValue(opt CommandOption, raw string) (OptionValue, error) {
	switch opt.Type {
	case OptionTypeString:
		return StringValue(raw), nil
	case OptionTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("option %s must be a number: %w", opt.Name, err)
		}
		return NumberValue(f), nil
	case OptionTypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("option %s must be true or false: %w", opt.Name, err)
		}
		return BoolValue(b), nil
	case OptionTypeUser:
		return UserValue(raw), nil
	case OptionTypeChannel:
		return ChannelValue(raw), nil
	default:
		return nil, fmt.Errorf("unsupported option type %q for option %s", opt.Type, opt.Name)
	}
}

// CommandOptions is the name-keyed bag of parsed options for one interaction
type CommandOptions map[string]OptionValue

func (o CommandOptions) Subcommand() mo.Option[string] {
	return o.GetString(SubcommandOptionKey)
}

func (o CommandOptions) GetString(name string) mo.Option[string] {
	if v, ok := o[name].(StringValue); ok {
		return mo.Some(string(v))
	}
	return mo.None[string]()
}

func (o CommandOptions) GetNumber(name string) mo.Option[float64] {
	if v, ok := o[name].(NumberValue); ok {
		return mo.Some(float64(v))
	}
	return mo.None[float64]()
}

func (o CommandOptions) GetBool(name string) mo.Option[bool] {
	if v, ok := o[name].(BoolValue); ok {
		return mo.Some(bool(v))
	}
	return mo.None[bool]()
}

func (o CommandOptions) GetUser(name string) mo.Option[string] {
	if v, ok := o[name].(UserValue); ok {
		return mo.Some(string(v))
	}
	return mo.None[string]()
}

func (o CommandOptions) GetChannel(name string) mo.Option[string] {
	if v, ok := o[name].(ChannelValue); ok {
		return mo.Some(string(v))
	}
	return mo.None[string]()
}
