package bridge

import (
	"fmt"
	"strings"
)

// OptionType constrains the values an option accepts.
type OptionType string

const (
	OptionBoolean OptionType = "boolean"
	OptionEnum    OptionType = "enum"
	OptionString  OptionType = "string"
)

// OptionSpec describes one configurable module option.
type OptionSpec struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Key     string     `json:"shortcut_key,omitempty"`
	Type    OptionType `json:"type"`
	Default any        `json:"default,omitempty"`
	Choices []string   `json:"choices,omitempty"`
}

// Options holds ordered option specs plus their current values, keyed by
// option id. Modules embed it to satisfy the option half of Module. Values
// mutate in place; not safe for concurrent use.
type Options struct {
	specs  []OptionSpec
	values map[string]any
}

// NewOptions seeds each option's current value from its default.
func NewOptions(specs []OptionSpec) *Options {
	values := make(map[string]any, len(specs))
	for _, spec := range specs {
		values[spec.ID] = spec.Default
	}
	return &Options{specs: specs, values: values}
}

// OptionSpecs returns the specs in declaration order.
func (o *Options) OptionSpecs() []OptionSpec {
	out := make([]OptionSpec, len(o.specs))
	copy(out, o.specs)
	return out
}

// OptionValue returns the current value for the option id.
func (o *Options) OptionValue(id string) (any, error) {
	value, ok := o.values[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOptionNotFound, id)
	}
	return value, nil
}

// SetOption validates the value against the option's declared type and stores
// it.
func (o *Options) SetOption(id string, value any) error {
	spec, ok := o.spec(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOptionNotFound, id)
	}
	switch spec.Type {
	case OptionBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("option %s: expected boolean, got %T", id, value)
		}
	case OptionEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("option %s: expected one of %s, got %T", id, strings.Join(spec.Choices, ", "), value)
		}
		if !contains(spec.Choices, s) {
			return fmt.Errorf("option %s: invalid choice %q (expected one of %s)", id, s, strings.Join(spec.Choices, ", "))
		}
	case OptionString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("option %s: expected string, got %T", id, value)
		}
	default:
		return fmt.Errorf("option %s: unknown option type %q", id, spec.Type)
	}
	o.values[id] = value
	return nil
}

// StringOption returns the option's current value as a string, or empty when
// unset or not a string.
func (o *Options) StringOption(id string) string {
	value, ok := o.values[id]
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// BoolOption returns the option's current value as a bool.
func (o *Options) BoolOption(id string) bool {
	value, ok := o.values[id]
	if !ok {
		return false
	}
	b, _ := value.(bool)
	return b
}

func (o *Options) spec(id string) (OptionSpec, bool) {
	for _, spec := range o.specs {
		if spec.ID == id {
			return spec, true
		}
	}
	return OptionSpec{}, false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
