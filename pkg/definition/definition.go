package definition

// Kind enumerates the closed set of definition variants.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindComplex   Kind = "complex"
	KindList      Kind = "list"
	KindEntity    Kind = "entity"
	KindField     Kind = "field"
)

// SettingTargetType marks a Field as a reference to another entity type. The
// value is the referenced entity type id.
const SettingTargetType = "target_type"

// Definition is a typed data definition. The interface is sealed: only the
// variants declared in this package implement it, so consumers can switch on
// the concrete type and treat anything else as a programming error.
type Definition interface {
	Kind() Kind
	metadata() Metadata
}

// Metadata holds the descriptive flags shared by every definition variant.
type Metadata struct {
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
	Computed    bool   `json:"computed,omitempty"`
}

func (m Metadata) metadata() Metadata { return m }

// MetadataOf returns the shared metadata of any definition. A nil definition
// yields the zero value.
func MetadataOf(def Definition) Metadata {
	if def == nil {
		return Metadata{}
	}
	return def.metadata()
}

// Primitive is a leaf definition (string, boolean, integer, ...).
type Primitive struct {
	Metadata
	DataType     string
	Constraints  Constraints
	Capabilities Capabilities
}

// Kind implements Definition.
func (Primitive) Kind() Kind { return KindPrimitive }

// Complex groups named property definitions in declaration order.
type Complex struct {
	Metadata
	Properties Properties
}

// Kind implements Definition.
func (Complex) Kind() Kind { return KindComplex }

// List wraps a single repeated item definition.
type List struct {
	Metadata
	Item Definition
}

// Kind implements Definition.
func (List) Kind() Kind { return KindList }

// EntityReference describes a full domain entity. Values seed the transient
// entity created by the host platform; Properties are the entity's own
// property definitions.
type EntityReference struct {
	Metadata
	EntityTypeID string
	Values       map[string]any
	Properties   Properties
}

// Kind implements Definition.
func (EntityReference) Kind() Kind { return KindEntity }

// Field is a storage-level field wrapping an item definition. Settings carry
// field storage configuration such as SettingTargetType.
type Field struct {
	Metadata
	Item     Definition
	Settings map[string]any
}

// Kind implements Definition.
func (Field) Kind() Kind { return KindField }

// TargetType returns the referenced entity type when the field is a
// reference field.
func (f Field) TargetType() (string, bool) {
	if len(f.Settings) == 0 {
		return "", false
	}
	raw, ok := f.Settings[SettingTargetType]
	if !ok {
		return "", false
	}
	target, ok := raw.(string)
	if !ok || target == "" {
		return "", false
	}
	return target, true
}

// Property is a named child of a Complex or EntityReference definition.
type Property struct {
	Name       string
	Definition Definition
}

// Properties keeps property definitions in declaration order.
type Properties []Property

// Lookup returns the definition registered under name.
func (p Properties) Lookup(name string) (Definition, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Definition, true
		}
	}
	return nil, false
}

// Names returns property names in declaration order.
func (p Properties) Names() []string {
	if len(p) == 0 {
		return nil
	}
	names := make([]string, len(p))
	for i, prop := range p {
		names[i] = prop.Name
	}
	return names
}

// Lookup narrows def to the named nested property. The second result reports
// whether the property exists; the third whether def supports properties at
// all. Lists and fields delegate to their item definition.
func Lookup(def Definition, name string) (Definition, bool, bool) {
	switch d := def.(type) {
	case Complex:
		child, ok := d.Properties.Lookup(name)
		return child, ok, true
	case EntityReference:
		child, ok := d.Properties.Lookup(name)
		return child, ok, true
	case List:
		if d.Item == nil {
			return nil, false, true
		}
		child, ok, _ := Lookup(d.Item, name)
		return child, ok, true
	case Field:
		if d.Item == nil {
			return nil, false, true
		}
		child, ok, _ := Lookup(d.Item, name)
		return child, ok, true
	default:
		return nil, false, false
	}
}

// WithMetadata returns a copy of def carrying meta. Unknown implementations
// are returned unchanged.
func WithMetadata(def Definition, meta Metadata) Definition {
	switch d := def.(type) {
	case Primitive:
		d.Metadata = meta
		return d
	case Complex:
		d.Metadata = meta
		return d
	case List:
		d.Metadata = meta
		return d
	case EntityReference:
		d.Metadata = meta
		return d
	case Field:
		d.Metadata = meta
		return d
	default:
		return def
	}
}

// Instance is an instantiated value that carries its own definition.
type Instance interface {
	Definition() Definition
}

// Value is the stock Instance implementation.
type Value struct {
	Def  Definition
	Data any
}

// Definition implements Instance.
func (v Value) Definition() Definition { return v.Def }
