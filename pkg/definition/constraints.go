package definition

// Constraint names that carry data consumed by widget selection.
const (
	ConstraintRange         = "Range"
	ConstraintAllowedValues = "AllowedValues"
	ConstraintChoice        = "Choice"
)

// Choice is a single value→label entry of an enumerated constraint.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Constraint is a named validation rule. Range constraints use Min/Max,
// enumerated constraints use Choices, everything else lands in Params.
type Constraint struct {
	Name    string
	Min     *float64
	Max     *float64
	Choices []Choice
	Params  map[string]string
}

// Constraints keeps constraints in declaration order.
type Constraints []Constraint

// Get returns the first constraint named name.
func (c Constraints) Get(name string) (Constraint, bool) {
	for _, constraint := range c {
		if constraint.Name == name {
			return constraint, true
		}
	}
	return Constraint{}, false
}

// Choices returns the choice set of the last AllowedValues or Choice
// constraint that carries at least one choice.
func (c Constraints) Choices() ([]Choice, bool) {
	var (
		found   []Choice
		matched bool
	)
	for _, constraint := range c {
		if constraint.Name != ConstraintAllowedValues && constraint.Name != ConstraintChoice {
			continue
		}
		if len(constraint.Choices) == 0 {
			continue
		}
		found = constraint.Choices
		matched = true
	}
	return found, matched
}

// Range builds a Range constraint.
func Range(lower, upper float64) Constraint {
	return Constraint{Name: ConstraintRange, Min: &lower, Max: &upper}
}

// AllowedValues builds an AllowedValues constraint from ordered choices.
func AllowedValues(choices ...Choice) Constraint {
	return Constraint{Name: ConstraintAllowedValues, Choices: append([]Choice(nil), choices...)}
}
