package widget

// Widget kinds selected for primitive definitions.
const (
	KindTextfield          = "textfield"
	KindCheckbox           = "checkbox"
	KindNumber             = "number"
	KindSelect             = "select"
	KindDatetime           = "datetime"
	KindEntityAutocomplete = "entity_autocomplete"
)

// Container kinds wrap nested widget specs.
const (
	KindContainer  = "container"
	KindFieldset   = "fieldset"
	KindFieldgroup = "fieldgroup"
)

// AttributeTargetType carries the referenced entity type on reference pickers.
const AttributeTargetType = "targetType"

// Spec describes a single widget, or a container of widgets. A zero Spec is
// the empty spec: nothing to render.
type Spec struct {
	Kind        string            `json:"kind,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Required    bool              `json:"required,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
	Min         *float64          `json:"min,omitempty"`
	Max         *float64          `json:"max,omitempty"`
	Options     Options           `json:"options,omitempty"`
	Container   bool              `json:"isContainer,omitempty"`
	Children    Children          `json:"children,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// IsZero reports whether s is the empty spec.
func (s Spec) IsZero() bool {
	return s.Kind == "" &&
		s.Title == "" &&
		s.Description == "" &&
		!s.Required &&
		!s.Disabled &&
		s.Min == nil &&
		s.Max == nil &&
		len(s.Options) == 0 &&
		!s.Container &&
		len(s.Children) == 0 &&
		len(s.Attributes) == 0
}

// Child returns the nested spec reached by following named children.
func (s Spec) Child(path ...string) (Spec, bool) {
	current := s
	for _, name := range path {
		next, ok := current.Children.Get(name)
		if !ok {
			return Spec{}, false
		}
		current = next
	}
	return current, true
}

// Clone returns a deep copy of s.
func (s Spec) Clone() Spec {
	out := s
	if s.Min != nil {
		value := *s.Min
		out.Min = &value
	}
	if s.Max != nil {
		value := *s.Max
		out.Max = &value
	}
	if len(s.Options) > 0 {
		out.Options = append(Options(nil), s.Options...)
	}
	if len(s.Children) > 0 {
		out.Children = make(Children, len(s.Children))
		for i, child := range s.Children {
			out.Children[i] = Child{Name: child.Name, Spec: child.Spec.Clone()}
		}
	}
	if len(s.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

// Option is a single value→label entry of a select widget.
type Option struct {
	Value string
	Label string
}

// Options keeps select options in declaration order.
type Options []Option

// Child is a nested spec. Property children are named; list exemplars are
// not.
type Child struct {
	Name string
	Spec Spec
}

// Children keeps nested specs in declaration order.
type Children []Child

// Get returns the child named name.
func (c Children) Get(name string) (Spec, bool) {
	if name == "" {
		return Spec{}, false
	}
	for _, child := range c {
		if child.Name == name {
			return child.Spec, true
		}
	}
	return Spec{}, false
}

// Named reports whether the children form a named mapping rather than an
// ordered list.
func (c Children) Named() bool {
	for _, child := range c {
		if child.Name != "" {
			return true
		}
	}
	return false
}

// Names returns child names in order, skipping unnamed exemplars.
func (c Children) Names() []string {
	var names []string
	for _, child := range c {
		if child.Name != "" {
			names = append(names, child.Name)
		}
	}
	return names
}

// Without returns a copy of c without the children for which drop reports
// true.
func (c Children) Without(drop func(Child) bool) Children {
	if len(c) == 0 {
		return c
	}
	out := make(Children, 0, len(c))
	for _, child := range c {
		if drop(child) {
			continue
		}
		out = append(out, child)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
