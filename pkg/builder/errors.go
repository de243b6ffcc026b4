package builder

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-typedwidget/pkg/definition"
)

var (
	// ErrInvalidProperty is matched by every InvalidPropertyError.
	ErrInvalidProperty = errors.New("builder: invalid property")
	// ErrInvalidArgument is matched by every InvalidArgumentError.
	ErrInvalidArgument = errors.New("builder: invalid argument")
	// ErrDepthExceeded is matched by every DepthExceededError.
	ErrDepthExceeded = errors.New("builder: maximum depth exceeded")
)

// InvalidPropertyError reports a property path that does not exist on the
// requested definition.
type InvalidPropertyError struct {
	ID       string
	Property string
	Kind     definition.Kind
}

func (e *InvalidPropertyError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("builder: property %q does not exist on %s definition", e.Property, e.Kind)
	}
	return fmt.Sprintf("builder: property %q does not exist on %s definition %q", e.Property, e.Kind, e.ID)
}

func (e *InvalidPropertyError) Is(target error) bool {
	return target == ErrInvalidProperty
}

// InvalidArgumentError reports a call made with an argument the builder
// cannot honour. It is returned before any output is produced.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("builder: invalid %s: %s", e.Argument, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// DepthExceededError stops traversal of definitions nested deeper than the
// configured limit, which in practice means a cyclic definition.
type DepthExceededError struct {
	Limit int
	Path  string
}

func (e *DepthExceededError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("builder: definition nesting exceeds %d levels", e.Limit)
	}
	return fmt.Sprintf("builder: definition nesting exceeds %d levels at %q", e.Limit, e.Path)
}

func (e *DepthExceededError) Is(target error) bool {
	return target == ErrDepthExceeded
}
