package visibility

import "github.com/goliatone/go-typedwidget/pkg/definition"

// Reason explains why a property was included or excluded.
type Reason string

const (
	ReasonIncluded    Reason = "included"
	ReasonComputed    Reason = "computed"
	ReasonReadOnly    Reason = "read-only"
	ReasonNonRequired Reason = "non-required"
)

// Policy decides which nested properties appear in a widget tree. It is a
// plain value: copy it per call instead of sharing a mutable instance.
type Policy struct {
	// IncludeNonRequired shows properties that are not required.
	IncludeNonRequired bool
	// IncludeReadOnly shows read-only properties. It only takes effect when
	// IncludeNonRequired is also set.
	IncludeReadOnly bool
}

// DefaultPolicy shows non-required properties and hides read-only ones.
func DefaultPolicy() Policy {
	return Policy{IncludeNonRequired: true}
}

// Decision is the verdict for a single property.
type Decision struct {
	Include bool
	Reason  Reason
}

// Decide evaluates meta against the policy. Rules are checked in order:
// computed properties are always hidden; read-only properties need both
// toggles; non-required properties need IncludeNonRequired; required
// properties are always shown.
func (p Policy) Decide(meta definition.Metadata) Decision {
	switch {
	case meta.Computed:
		return Decision{Include: false, Reason: ReasonComputed}
	case meta.ReadOnly:
		if p.IncludeNonRequired && p.IncludeReadOnly {
			return Decision{Include: true, Reason: ReasonIncluded}
		}
		return Decision{Include: false, Reason: ReasonReadOnly}
	case !meta.Required:
		if p.IncludeNonRequired {
			return Decision{Include: true, Reason: ReasonIncluded}
		}
		return Decision{Include: false, Reason: ReasonNonRequired}
	default:
		return Decision{Include: true, Reason: ReasonIncluded}
	}
}

// Include reports whether a property with meta should be shown.
func (p Policy) Include(meta definition.Metadata) bool {
	return p.Decide(meta).Include
}

// IncludeDefinition is Include for a whole definition.
func (p Policy) IncludeDefinition(def definition.Definition) bool {
	return p.Include(definition.MetadataOf(def))
}
