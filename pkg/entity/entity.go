package entity

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// ErrUnavailable reports that the host cannot produce a default form for an
// entity type. Builders recover from it by traversing the entity's own
// property definitions.
var ErrUnavailable = errors.New("entity: default form unavailable")

// FormDelegate builds the host platform's default create/edit form for an
// entity type, instantiating a transient entity from values.
type FormDelegate interface {
	BuildDefaultForm(ctx context.Context, entityTypeID string, values map[string]any) (widget.Spec, error)
}

// FormDelegateFunc adapts a function into a FormDelegate.
type FormDelegateFunc func(ctx context.Context, entityTypeID string, values map[string]any) (widget.Spec, error)

// BuildDefaultForm calls the underlying function.
func (fn FormDelegateFunc) BuildDefaultForm(ctx context.Context, entityTypeID string, values map[string]any) (widget.Spec, error) {
	return fn(ctx, entityTypeID, values)
}

// Names and kinds of submission controls removed from delegated forms.
const (
	ActionsChild = "actions"
	KindActions  = "actions"
	KindSubmit   = "submit"
	KindButton   = "button"
)

// StripActions removes submission controls from a delegated form tree: any
// child named "actions" and any child whose kind is a button-like control.
// The input is not modified.
func StripActions(spec widget.Spec) widget.Spec {
	out := spec.Clone()
	out.Children = stripChildren(out.Children)
	return out
}

func stripChildren(children widget.Children) widget.Children {
	kept := children.Without(func(child widget.Child) bool {
		return child.Name == ActionsChild || isActionKind(child.Spec.Kind)
	})
	for i := range kept {
		kept[i].Spec.Children = stripChildren(kept[i].Spec.Children)
	}
	return kept
}

func isActionKind(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindActions, KindSubmit, KindButton:
		return true
	default:
		return false
	}
}

// MergeValues overlays call-time values on definition defaults. Neither
// input is modified.
func MergeValues(defaults, overrides map[string]any) map[string]any {
	if len(defaults) == 0 && len(overrides) == 0 {
		return nil
	}
	out := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
