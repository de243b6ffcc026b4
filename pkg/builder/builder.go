package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-typedwidget/pkg/definition"
	"github.com/goliatone/go-typedwidget/pkg/entity"
	"github.com/goliatone/go-typedwidget/pkg/visibility"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// DefaultMaxDepth bounds definition nesting when no WithMaxDepth option is
// supplied.
const DefaultMaxDepth = 64

// PathSeparator splits nested property paths in Request.Property.
const PathSeparator = "."

// Builder turns typed data definitions into widget spec trees. A Builder is
// configured once through options and is safe for concurrent use afterwards;
// per-call settings travel in Request.
type Builder struct {
	resolver    definition.Resolver
	selector    *widget.Selector
	entityForms entity.FormDelegate
	policy      visibility.Policy
	maxDepth    int
	sanitize    widget.TextSanitizer
	logger      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithSelector replaces the widget kind selector.
func WithSelector(selector *widget.Selector) Option {
	return func(b *Builder) {
		if selector != nil {
			b.selector = selector
		}
	}
}

// WithAlterHook installs a kind alteration hook on a fresh default selector.
func WithAlterHook(hook widget.AlterHook) Option {
	return func(b *Builder) {
		b.selector = widget.NewSelector(widget.WithAlterHook(hook))
	}
}

// WithEntityForms sets the host delegate that builds default entity forms.
// Without one, entity definitions always use property traversal.
func WithEntityForms(delegate entity.FormDelegate) Option {
	return func(b *Builder) {
		b.entityForms = delegate
	}
}

// WithPolicy sets the default visibility policy used when a request does not
// carry its own.
func WithPolicy(policy visibility.Policy) Option {
	return func(b *Builder) {
		b.policy = policy
	}
}

// WithIncludeNonRequired toggles the default policy's IncludeNonRequired.
func WithIncludeNonRequired(include bool) Option {
	return func(b *Builder) {
		b.policy.IncludeNonRequired = include
	}
}

// WithIncludeReadOnly toggles the default policy's IncludeReadOnly.
func WithIncludeReadOnly(include bool) Option {
	return func(b *Builder) {
		b.policy.IncludeReadOnly = include
	}
}

// WithMaxDepth sets the nesting limit. Values below one are ignored.
func WithMaxDepth(depth int) Option {
	return func(b *Builder) {
		if depth > 0 {
			b.maxDepth = depth
		}
	}
}

// WithTextSanitizer cleans titles, descriptions and option labels of every
// produced spec. widget.StripMarkup is the usual choice.
func WithTextSanitizer(fn widget.TextSanitizer) Option {
	return func(b *Builder) {
		b.sanitize = fn
	}
}

// WithLogger routes debug events (resolution, exclusions, entity fallbacks)
// to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Builder resolving identifiers through resolver.
func New(resolver definition.Resolver, options ...Option) *Builder {
	b := &Builder{
		resolver: resolver,
		selector: widget.NewSelector(),
		policy:   visibility.DefaultPolicy(),
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Request describes a single build from an identifier.
type Request struct {
	// ID identifies the definition to resolve.
	ID string
	// Property optionally narrows the build to a nested property. Nested
	// paths are separated by PathSeparator.
	Property string
	// Values seed the transient entity when the root definition is an entity.
	Values map[string]any
	// Policy overrides the builder's default visibility policy for this call.
	Policy *visibility.Policy
}

// Policy returns the builder's default visibility policy.
func (b *Builder) Policy() visibility.Policy {
	return b.policy
}

// Build resolves req.ID and returns the widget tree for it, or for the
// requested nested property.
func (b *Builder) Build(ctx context.Context, req Request) (widget.Spec, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return widget.Spec{}, &InvalidArgumentError{Argument: "id", Reason: "identifier is required"}
	}
	def, err := b.resolve(ctx, id)
	if err != nil {
		return widget.Spec{}, err
	}

	w := b.walker(req.Policy)
	spec, err := w.buildPath(ctx, id, def, splitPath(req.Property), req.Values)
	if err != nil {
		return widget.Spec{}, err
	}
	return b.finish(spec), nil
}

// BuildFromInstance builds the tree for the definition attached to inst.
// When the instance data is a map it seeds entity instantiation values.
func (b *Builder) BuildFromInstance(ctx context.Context, inst definition.Instance) (widget.Spec, error) {
	if inst == nil || inst.Definition() == nil {
		return widget.Spec{}, &InvalidArgumentError{Argument: "instance", Reason: "instance has no definition"}
	}
	var values map[string]any
	if v, ok := inst.(definition.Value); ok {
		values, _ = v.Data.(map[string]any)
	}
	w := b.walker(nil)
	spec, err := w.build(ctx, inst.Definition(), values, 0, "")
	if err != nil {
		return widget.Spec{}, err
	}
	return b.finish(spec), nil
}

// BuildDefinition builds the tree for an in-hand definition. A nil policy
// uses the builder default.
func (b *Builder) BuildDefinition(ctx context.Context, def definition.Definition, policy *visibility.Policy) (widget.Spec, error) {
	if def == nil {
		return widget.Spec{}, &InvalidArgumentError{Argument: "definition", Reason: "definition is nil"}
	}
	w := b.walker(policy)
	spec, err := w.build(ctx, def, nil, 0, "")
	if err != nil {
		return widget.Spec{}, err
	}
	return b.finish(spec), nil
}

// BuildList builds a list container holding size exemplars of the item
// definition. A negative size fails before anything is built.
func (b *Builder) BuildList(ctx context.Context, list definition.List, size int) (widget.Spec, error) {
	return b.buildList(ctx, list, size, nil)
}

// ListRequest describes a list build from an identifier.
type ListRequest struct {
	// ID must name a list definition.
	ID string
	// Size is the number of exemplars; negative sizes are rejected.
	Size int
	// Policy overrides the builder's default visibility policy for the
	// exemplars.
	Policy *visibility.Policy
}

// BuildListFromID resolves id, which must name a list definition, and builds
// it with size exemplars.
func (b *Builder) BuildListFromID(ctx context.Context, id string, size int) (widget.Spec, error) {
	return b.BuildListRequest(ctx, ListRequest{ID: id, Size: size})
}

// BuildListRequest is BuildListFromID with a per-call policy.
func (b *Builder) BuildListRequest(ctx context.Context, req ListRequest) (widget.Spec, error) {
	if err := validateSize(req.Size); err != nil {
		return widget.Spec{}, err
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return widget.Spec{}, &InvalidArgumentError{Argument: "id", Reason: "identifier is required"}
	}
	def, err := b.resolve(ctx, id)
	if err != nil {
		return widget.Spec{}, err
	}
	list, ok := def.(definition.List)
	if !ok {
		return widget.Spec{}, &InvalidArgumentError{
			Argument: "id",
			Reason:   fmt.Sprintf("definition %q is a %s, not a list", id, def.Kind()),
		}
	}
	return b.buildList(ctx, list, req.Size, req.Policy)
}

func (b *Builder) buildList(ctx context.Context, list definition.List, size int, policy *visibility.Policy) (widget.Spec, error) {
	if err := validateSize(size); err != nil {
		return widget.Spec{}, err
	}
	spec, err := b.walker(policy).list(ctx, list, size, 0, "")
	if err != nil {
		return widget.Spec{}, err
	}
	return b.finish(spec), nil
}

func (b *Builder) resolve(ctx context.Context, id string) (definition.Definition, error) {
	if b.resolver == nil {
		return nil, fmt.Errorf("builder: resolve %q: no resolver configured", id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def, err := b.resolver.Resolve(ctx, id)
	if err != nil {
		if definition.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("builder: resolve %q: %w", id, err)
	}
	if def == nil {
		return nil, &definition.NotFoundError{ID: id}
	}
	b.logger.Debug("builder: resolved definition", "id", id, "kind", string(def.Kind()))
	return def, nil
}

func (b *Builder) walker(policy *visibility.Policy) *walker {
	w := &walker{Builder: b, policy: b.policy}
	if policy != nil {
		w.policy = *policy
	}
	return w
}

func (b *Builder) finish(spec widget.Spec) widget.Spec {
	if b.sanitize == nil {
		return spec
	}
	return widget.Sanitize(spec, b.sanitize)
}

func validateSize(size int) error {
	if size < 0 {
		return &InvalidArgumentError{
			Argument: "size",
			Reason:   fmt.Sprintf("exemplar count must not be negative, got %d", size),
		}
	}
	return nil
}

func splitPath(property string) []string {
	property = strings.TrimSpace(property)
	if property == "" {
		return nil
	}
	parts := strings.Split(property, PathSeparator)
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
