package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-typedwidget/pkg/definition"
	"github.com/goliatone/go-typedwidget/pkg/entity"
	"github.com/goliatone/go-typedwidget/pkg/visibility"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// walker carries the per-call policy through one traversal. It never
// mutates the Builder.
type walker struct {
	*Builder
	policy visibility.Policy
}

// buildPath narrows def along path before building. Declared properties are
// narrowed on the definition; an undeclared property of an entity is looked
// up in the entity's produced form instead.
func (w *walker) buildPath(ctx context.Context, id string, def definition.Definition, path []string, values map[string]any) (widget.Spec, error) {
	current := def
	for i, segment := range path {
		if ref, ok := current.(definition.EntityReference); ok {
			if _, declared := ref.Properties.Lookup(segment); !declared {
				spec, err := w.entity(ctx, ref, values, 0, strings.Join(path[:i], PathSeparator))
				if err != nil {
					return widget.Spec{}, err
				}
				child, ok := spec.Child(path[i:]...)
				if !ok {
					w.logger.Debug("builder: entity property absent from form",
						"id", id, "property", strings.Join(path, PathSeparator))
					return widget.Spec{}, nil
				}
				return child, nil
			}
		}

		next, found, supported := definition.Lookup(current, segment)
		if !supported || !found {
			return widget.Spec{}, &InvalidPropertyError{
				ID:       id,
				Property: strings.Join(path[:i+1], PathSeparator),
				Kind:     current.Kind(),
			}
		}
		current = next
		values = nil
	}
	return w.build(ctx, current, values, 0, strings.Join(path, PathSeparator))
}

// build dispatches on the definition variant.
func (w *walker) build(ctx context.Context, def definition.Definition, values map[string]any, depth int, path string) (widget.Spec, error) {
	if depth > w.maxDepth {
		return widget.Spec{}, &DepthExceededError{Limit: w.maxDepth, Path: path}
	}

	switch d := def.(type) {
	case definition.Primitive:
		return w.primitive(d), nil
	case definition.Complex:
		return w.complex(ctx, d.Metadata, d.Properties, depth, path)
	case definition.List:
		return w.list(ctx, d, 1, depth, path)
	case definition.Field:
		return w.field(ctx, d, depth, path)
	case definition.EntityReference:
		return w.entity(ctx, d, values, depth, path)
	case nil:
		return widget.Spec{}, fmt.Errorf("builder: missing definition at %q", path)
	default:
		return widget.Spec{}, fmt.Errorf("builder: unsupported definition type %T at %q", def, path)
	}
}

func (w *walker) primitive(def definition.Primitive) widget.Spec {
	selection := w.selector.Select(def)
	return widget.Spec{
		Kind:        selection.Kind,
		Title:       def.Label,
		Description: def.Description,
		Required:    def.Required,
		Disabled:    def.ReadOnly,
		Min:         selection.Min,
		Max:         selection.Max,
		Options:     selection.Options,
	}
}

// complex builds visible properties in declaration order. Fewer than two
// survivors skip the container: one is returned as is, none yields the empty
// spec.
func (w *walker) complex(ctx context.Context, meta definition.Metadata, props definition.Properties, depth int, path string) (widget.Spec, error) {
	children := make(widget.Children, 0, len(props))
	for _, prop := range props {
		propPath := joinPath(path, prop.Name)
		decision := w.policy.Decide(definition.MetadataOf(prop.Definition))
		if !decision.Include {
			w.logger.Debug("builder: property excluded", "property", propPath, "reason", string(decision.Reason))
			continue
		}
		spec, err := w.build(ctx, prop.Definition, nil, depth+1, propPath)
		if err != nil {
			return widget.Spec{}, err
		}
		children = append(children, widget.Child{Name: prop.Name, Spec: spec})
	}

	switch len(children) {
	case 0:
		return widget.Spec{}, nil
	case 1:
		return children[0].Spec, nil
	}
	return widget.Spec{
		Kind:        containerKind(meta),
		Title:       meta.Label,
		Description: meta.Description,
		Container:   true,
		Children:    children,
	}, nil
}

// list always yields a container; each exemplar is built independently.
func (w *walker) list(ctx context.Context, list definition.List, size, depth int, path string) (widget.Spec, error) {
	if list.Item == nil {
		return widget.Spec{}, fmt.Errorf("builder: list at %q has no item definition", path)
	}
	spec := widget.Spec{
		Kind:        containerKind(list.Metadata),
		Title:       list.Label,
		Description: list.Description,
		Container:   true,
	}
	if size == 0 {
		return spec, nil
	}
	spec.Children = make(widget.Children, 0, size)
	for i := 0; i < size; i++ {
		item, err := w.build(ctx, list.Item, nil, depth+1, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return widget.Spec{}, err
		}
		spec.Children = append(spec.Children, widget.Child{Spec: item})
	}
	return spec, nil
}

// field wraps its single child in a fieldgroup. Reference fields get a
// picker for the target type instead of recursing into the item.
func (w *walker) field(ctx context.Context, field definition.Field, depth int, path string) (widget.Spec, error) {
	spec := widget.Spec{
		Kind:        widget.KindFieldgroup,
		Title:       field.Label,
		Description: field.Description,
		Container:   true,
	}
	if target, ok := field.TargetType(); ok {
		spec.Children = widget.Children{{Spec: widget.Spec{
			Kind:        widget.KindEntityAutocomplete,
			Title:       field.Label,
			Description: field.Description,
			Required:    field.Required,
			Disabled:    field.ReadOnly,
			Attributes:  map[string]string{widget.AttributeTargetType: target},
		}}}
		return spec, nil
	}
	if field.Item == nil {
		return widget.Spec{}, fmt.Errorf("builder: field at %q has no item definition", path)
	}
	item, err := w.build(ctx, field.Item, nil, depth+1, path)
	if err != nil {
		return widget.Spec{}, err
	}
	spec.Children = widget.Children{{Spec: item}}
	return spec, nil
}

// entity asks the host for the entity's default form and falls back to
// property traversal when it cannot provide one. Only cancellation of ctx
// escapes as an error from the delegate path.
func (w *walker) entity(ctx context.Context, ref definition.EntityReference, values map[string]any, depth int, path string) (widget.Spec, error) {
	if w.entityForms == nil {
		w.logger.Debug("builder: no entity form delegate, traversing properties", "entity_type", ref.EntityTypeID, "path", path)
		return w.complex(ctx, ref.Metadata, ref.Properties, depth, path)
	}

	spec, err := w.entityForms.BuildDefaultForm(ctx, ref.EntityTypeID, entity.MergeValues(ref.Values, values))
	if err == nil {
		return entity.StripActions(spec), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return widget.Spec{}, ctxErr
	}
	w.logger.Debug("builder: entity form unavailable, traversing properties",
		"entity_type", ref.EntityTypeID, "path", path, "error", err)
	return w.complex(ctx, ref.Metadata, ref.Properties, depth, path)
}

func containerKind(meta definition.Metadata) string {
	if strings.TrimSpace(meta.Label) != "" {
		return widget.KindFieldset
	}
	return widget.KindContainer
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}
