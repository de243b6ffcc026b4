package widget

import (
	"strings"

	"github.com/goliatone/go-typedwidget/pkg/definition"
)

// SecondsPerDay bounds duration inputs that carry no explicit Range.
const SecondsPerDay = 86400

// Selection is the widget kind picked for a primitive together with the
// kind-specific configuration.
type Selection struct {
	Kind    string
	Min     *float64
	Max     *float64
	Options Options
}

// AlterHook lets callers override the selected kind. It must not mutate the
// definition; returning an empty string keeps the original kind.
type AlterHook func(kind string, def definition.Primitive) string

// Matcher decides whether a rule applies to the supplied primitive.
type Matcher func(def definition.Primitive) bool

type rule struct {
	kind  string
	match Matcher
}

// Selector picks widget kinds for primitive definitions. Rules are evaluated
// in order and the first match wins; a primitive no rule claims becomes a
// textfield. Selectors are immutable and safe for concurrent use.
type Selector struct {
	rules []rule
	alter AlterHook
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithAlterHook installs the kind alteration hook. A nil hook restores the
// identity default.
func WithAlterHook(hook AlterHook) SelectorOption {
	return func(s *Selector) {
		s.alter = hook
	}
}

// NewSelector constructs a selector with the built-in rules.
func NewSelector(options ...SelectorOption) *Selector {
	s := &Selector{rules: builtinRules()}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Select returns the widget kind and configuration for def.
func (s *Selector) Select(def definition.Primitive) Selection {
	if s == nil {
		s = defaultSelector
	}

	kind := KindTextfield
	for _, entry := range s.rules {
		if entry.match(def) {
			kind = entry.kind
			break
		}
	}

	if s.alter != nil {
		if altered := strings.TrimSpace(s.alter(kind, def)); altered != "" {
			kind = altered
		}
	}

	selection := Selection{Kind: kind}
	switch kind {
	case KindNumber:
		applyNumberBounds(&selection, def)
	case KindSelect:
		if choices, ok := def.Constraints.Choices(); ok {
			selection.Options = optionsFromChoices(choices)
		}
	}
	return selection
}

// Kind is a shortcut returning only the selected kind.
func (s *Selector) Kind(def definition.Primitive) string {
	return s.Select(def).Kind
}

var defaultSelector = NewSelector()

func builtinRules() []rule {
	return []rule{
		{kind: KindCheckbox, match: func(def definition.Primitive) bool {
			return def.DataType == definition.DataTypeBoolean
		}},
		{kind: KindDatetime, match: func(def definition.Primitive) bool {
			return def.Capabilities.Has(definition.CapabilityDateTime)
		}},
		{kind: KindNumber, match: func(def definition.Primitive) bool {
			return def.Capabilities.Has(definition.CapabilityInteger) ||
				def.Capabilities.Has(definition.CapabilityFloat)
		}},
		{kind: KindSelect, match: func(def definition.Primitive) bool {
			_, ok := def.Constraints.Choices()
			return ok
		}},
	}
}

func applyNumberBounds(selection *Selection, def definition.Primitive) {
	if bounds, ok := def.Constraints.Get(definition.ConstraintRange); ok {
		selection.Min = copyFloat(bounds.Min)
		selection.Max = copyFloat(bounds.Max)
		return
	}
	if def.Capabilities.Has(definition.CapabilityDuration) {
		lower, upper := float64(0), float64(SecondsPerDay)
		selection.Min = &lower
		selection.Max = &upper
	}
}

func optionsFromChoices(choices []definition.Choice) Options {
	if len(choices) == 0 {
		return nil
	}
	out := make(Options, len(choices))
	for i, choice := range choices {
		label := choice.Label
		if label == "" {
			label = choice.Value
		}
		out[i] = Option{Value: choice.Value, Label: label}
	}
	return out
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
