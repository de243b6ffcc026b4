package builder_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-typedwidget/pkg/builder"
	"github.com/goliatone/go-typedwidget/pkg/definition"
	"github.com/goliatone/go-typedwidget/pkg/entity"
	"github.com/goliatone/go-typedwidget/pkg/visibility"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

func float(v float64) *float64 { return &v }

func primitive(dataType string, meta definition.Metadata, constraints ...definition.Constraint) definition.Primitive {
	p := definition.NewPrimitive(dataType)
	p.Metadata = meta
	p.Constraints = constraints
	return p
}

func newRegistry(t *testing.T, defs map[string]definition.Definition) *definition.Registry {
	t.Helper()
	registry := definition.NewRegistry()
	for id, def := range defs {
		if err := registry.Register(id, def); err != nil {
			t.Fatalf("register %q: %v", id, err)
		}
	}
	return registry
}

func profileDefinition() definition.Complex {
	return definition.Complex{
		Metadata: definition.Metadata{Label: "Profile", Description: "Public profile"},
		Properties: definition.Properties{
			{Name: "a", Definition: primitive(definition.DataTypeString, definition.Metadata{Label: "A", Required: true})},
			{Name: "b", Definition: primitive(definition.DataTypeString, definition.Metadata{Label: "B"})},
		},
	}
}

func TestBuildDefinition_Primitives(t *testing.T) {
	ctx := context.Background()
	b := builder.New(nil)

	tests := []struct {
		name string
		def  definition.Primitive
		want widget.Spec
	}{
		{
			name: "boolean ignores constraints",
			def: primitive(definition.DataTypeBoolean, definition.Metadata{Label: "Active"},
				definition.AllowedValues(definition.Choice{Value: "1"}), definition.Range(0, 1)),
			want: widget.Spec{Kind: widget.KindCheckbox, Title: "Active"},
		},
		{
			name: "integer with range",
			def:  primitive(definition.DataTypeInteger, definition.Metadata{}, definition.Range(0, 10)),
			want: widget.Spec{Kind: widget.KindNumber, Min: float(0), Max: float(10)},
		},
		{
			name: "duration without range",
			def:  primitive(definition.DataTypeTimeSpan, definition.Metadata{}),
			want: widget.Spec{Kind: widget.KindNumber, Min: float(0), Max: float(widget.SecondsPerDay)},
		},
		{
			name: "float without bounds",
			def:  primitive(definition.DataTypeFloat, definition.Metadata{}),
			want: widget.Spec{Kind: widget.KindNumber},
		},
		{
			name: "datetime",
			def:  primitive(definition.DataTypeDateTime, definition.Metadata{Label: "When"}),
			want: widget.Spec{Kind: widget.KindDatetime, Title: "When"},
		},
		{
			name: "choices become select options",
			def: primitive(definition.DataTypeString, definition.Metadata{Required: true},
				definition.AllowedValues(definition.Choice{Value: "red", Label: "Red"}, definition.Choice{Value: "blue"})),
			want: widget.Spec{
				Kind:     widget.KindSelect,
				Required: true,
				Options:  widget.Options{{Value: "red", Label: "Red"}, {Value: "blue", Label: "blue"}},
			},
		},
		{
			name: "read-only string is disabled",
			def:  primitive(definition.DataTypeString, definition.Metadata{Label: "Name", Description: "Full name", ReadOnly: true}),
			want: widget.Spec{Kind: widget.KindTextfield, Title: "Name", Description: "Full name", Disabled: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.BuildDefinition(ctx, tt.def, nil)
			if err != nil {
				t.Fatalf("BuildDefinition: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("spec mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_ComplexWrapsSurvivingChildren(t *testing.T) {
	registry := newRegistry(t, map[string]definition.Definition{"profile": profileDefinition()})
	b := builder.New(registry)

	got, err := b.Build(context.Background(), builder.Request{ID: "profile"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := widget.Spec{
		Kind:        widget.KindFieldset,
		Title:       "Profile",
		Description: "Public profile",
		Container:   true,
		Children: widget.Children{
			{Name: "a", Spec: widget.Spec{Kind: widget.KindTextfield, Title: "A", Required: true}},
			{Name: "b", Spec: widget.Spec{Kind: widget.KindTextfield, Title: "B"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spec mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ComplexSingleSurvivorIsUnwrapped(t *testing.T) {
	registry := newRegistry(t, map[string]definition.Definition{"profile": profileDefinition()})
	b := builder.New(registry, builder.WithIncludeNonRequired(false))

	got, err := b.Build(context.Background(), builder.Request{ID: "profile"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := widget.Spec{Kind: widget.KindTextfield, Title: "A", Required: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spec mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ComplexWithoutSurvivorsIsEmpty(t *testing.T) {
	def := definition.Complex{
		Metadata: definition.Metadata{Label: "Hidden"},
		Properties: definition.Properties{
			{Name: "total", Definition: primitive(definition.DataTypeInteger, definition.Metadata{Computed: true, Required: true})},
		},
	}
	got, err := builder.New(nil).BuildDefinition(context.Background(), def, nil)
	if err != nil {
		t.Fatalf("BuildDefinition: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected empty spec, got %+v", got)
	}
}

func TestBuild_RequestPolicyOverridesDefault(t *testing.T) {
	def := definition.Complex{
		Properties: definition.Properties{
			{Name: "id", Definition: primitive(definition.DataTypeInteger, definition.Metadata{ReadOnly: true})},
			{Name: "name", Definition: primitive(definition.DataTypeString, definition.Metadata{Required: true})},
		},
	}
	registry := newRegistry(t, map[string]definition.Definition{"node": def})
	b := builder.New(registry)

	hidden, err := b.Build(context.Background(), builder.Request{ID: "node"})
	if err != nil {
		t.Fatalf("Build default policy: %v", err)
	}
	if hidden.Container {
		t.Fatalf("expected read-only id to be hidden by default, got container %+v", hidden)
	}

	policy := visibility.Policy{IncludeNonRequired: true, IncludeReadOnly: true}
	shown, err := b.Build(context.Background(), builder.Request{ID: "node", Policy: &policy})
	if err != nil {
		t.Fatalf("Build with policy: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "name"}, shown.Children.Names()); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if !shown.Children[0].Spec.Disabled {
		t.Fatalf("expected read-only child to be disabled")
	}
	if b.Policy() != visibility.DefaultPolicy() {
		t.Fatalf("request policy must not change builder default, got %+v", b.Policy())
	}
}

func TestBuild_ListYieldsSingleExemplar(t *testing.T) {
	list := definition.List{
		Metadata: definition.Metadata{Label: "Flags"},
		Item:     primitive(definition.DataTypeBoolean, definition.Metadata{Label: "Flag"}),
	}
	registry := newRegistry(t, map[string]definition.Definition{"flags": list})

	got, err := builder.New(registry).Build(context.Background(), builder.Request{ID: "flags"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := widget.Spec{
		Kind:      widget.KindFieldset,
		Title:     "Flags",
		Container: true,
		Children:  widget.Children{{Spec: widget.Spec{Kind: widget.KindCheckbox, Title: "Flag"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spec mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildList_Sizes(t *testing.T) {
	list := definition.List{Item: primitive(definition.DataTypeBoolean, definition.Metadata{})}
	b := builder.New(nil)

	for _, size := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			got, err := b.BuildList(context.Background(), list, size)
			if err != nil {
				t.Fatalf("BuildList: %v", err)
			}
			if got.Kind != widget.KindContainer || !got.Container {
				t.Fatalf("expected container, got %+v", got)
			}
			if len(got.Children) != size {
				t.Fatalf("expected %d children, got %d", size, len(got.Children))
			}
			for _, child := range got.Children {
				if child.Spec.Kind != widget.KindCheckbox {
					t.Fatalf("expected checkbox exemplar, got %q", child.Spec.Kind)
				}
			}
		})
	}
}

func TestBuildList_NegativeSize(t *testing.T) {
	calls := 0
	resolver := definition.ResolverFunc(func(context.Context, string) (definition.Definition, error) {
		calls++
		return definition.List{Item: primitive(definition.DataTypeBoolean, definition.Metadata{})}, nil
	})
	b := builder.New(resolver)

	got, err := b.BuildListFromID(context.Background(), "flags", -1)
	if !errors.Is(err, builder.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	var argErr *builder.InvalidArgumentError
	if !errors.As(err, &argErr) || argErr.Argument != "size" {
		t.Fatalf("expected size argument error, got %#v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected no partial output, got %+v", got)
	}
	if calls != 0 {
		t.Fatalf("expected failure before resolution, resolver called %d times", calls)
	}

	if _, err := b.BuildList(context.Background(), definition.List{}, -5); !errors.Is(err, builder.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument from BuildList, got %v", err)
	}
}

func TestBuildListFromID_RejectsNonList(t *testing.T) {
	registry := newRegistry(t, map[string]definition.Definition{"profile": profileDefinition()})
	_, err := builder.New(registry).BuildListFromID(context.Background(), "profile", 2)
	if !errors.Is(err, builder.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBuildListRequest_Policy(t *testing.T) {
	registry := newRegistry(t, map[string]definition.Definition{
		"profiles": definition.List{Item: profileDefinition()},
	})
	b := builder.New(registry)

	requiredOnly := visibility.Policy{IncludeNonRequired: false}
	got, err := b.BuildListRequest(context.Background(), builder.ListRequest{ID: "profiles", Size: 2, Policy: &requiredOnly})
	if err != nil {
		t.Fatalf("BuildListRequest: %v", err)
	}
	if len(got.Children) != 2 {
		t.Fatalf("expected 2 exemplars, got %d", len(got.Children))
	}
	for i, exemplar := range got.Children {
		if exemplar.Spec.Kind != widget.KindTextfield || exemplar.Spec.Title != "A" {
			t.Fatalf("exemplar %d: expected the required property unwrapped, got %+v", i, exemplar.Spec)
		}
	}

	defaulted, err := b.BuildListFromID(context.Background(), "profiles", 1)
	if err != nil {
		t.Fatalf("BuildListFromID: %v", err)
	}
	if exemplar := defaulted.Children[0].Spec; !exemplar.Container || len(exemplar.Children) != 2 {
		t.Fatalf("expected default policy to keep both properties, got %+v", exemplar)
	}

	if _, err := b.BuildListRequest(context.Background(), builder.ListRequest{ID: "profiles", Size: -1}); !errors.Is(err, builder.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBuild_FieldWrapsItem(t *testing.T) {
	field := definition.Field{
		Metadata: definition.Metadata{Label: "Tags"},
		Item:     primitive(definition.DataTypeString, definition.Metadata{Label: "Tag"}),
	}
	got, err := builder.New(nil).BuildDefinition(context.Background(), field, nil)
	if err != nil {
		t.Fatalf("BuildDefinition: %v", err)
	}
	want := widget.Spec{
		Kind:      widget.KindFieldgroup,
		Title:     "Tags",
		Container: true,
		Children:  widget.Children{{Spec: widget.Spec{Kind: widget.KindTextfield, Title: "Tag"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spec mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ReferenceFieldUsesPicker(t *testing.T) {
	field := definition.Field{
		Metadata: definition.Metadata{Label: "Author", Required: true},
		Item:     primitive(definition.DataTypeInteger, definition.Metadata{}),
		Settings: map[string]any{definition.SettingTargetType: "user"},
	}
	got, err := builder.New(nil).BuildDefinition(context.Background(), field, nil)
	if err != nil {
		t.Fatalf("BuildDefinition: %v", err)
	}
	want := widget.Spec{
		Kind:      widget.KindFieldgroup,
		Title:     "Author",
		Container: true,
		Children: widget.Children{{Spec: widget.Spec{
			Kind:       widget.KindEntityAutocomplete,
			Title:      "Author",
			Required:   true,
			Attributes: map[string]string{widget.AttributeTargetType: "user"},
		}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spec mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_IsDeterministic(t *testing.T) {
	registry := newRegistry(t, map[string]definition.Definition{"profile": profileDefinition()})
	b := builder.New(registry)

	first, err := b.Build(context.Background(), builder.Request{ID: "profile"})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := b.Build(context.Background(), builder.Request{ID: "profile"})
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("builds differ (-first +second):\n%s", diff)
	}
	first.Children[0].Spec.Title = "changed"
	if second.Children[0].Spec.Title == "changed" {
		t.Fatalf("builds share state")
	}
}

func TestBuild_Errors(t *testing.T) {
	registry := newRegistry(t, map[string]definition.Definition{
		"profile": profileDefinition(),
		"name":    primitive(definition.DataTypeString, definition.Metadata{}),
	})
	b := builder.New(registry)

	tests := []struct {
		name   string
		req    builder.Request
		target error
	}{
		{name: "unknown id", req: builder.Request{ID: "missing"}, target: definition.ErrNotFound},
		{name: "unknown property", req: builder.Request{ID: "profile", Property: "nope"}, target: builder.ErrInvalidProperty},
		{name: "property on primitive", req: builder.Request{ID: "name", Property: "x"}, target: builder.ErrInvalidProperty},
		{name: "nested unknown property", req: builder.Request{ID: "profile", Property: "a.b"}, target: builder.ErrInvalidProperty},
		{name: "empty id", req: builder.Request{}, target: builder.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(context.Background(), tt.req)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			if !got.IsZero() {
				t.Fatalf("expected no output on error, got %+v", got)
			}
		})
	}

	_, err := b.Build(context.Background(), builder.Request{ID: "missing"})
	var notFound *definition.NotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "missing" {
		t.Fatalf("expected NotFoundError for missing, got %#v", err)
	}
}

func TestBuild_PropertyNarrowing(t *testing.T) {
	outer := definition.Complex{
		Properties: definition.Properties{
			{Name: "profile", Definition: profileDefinition()},
			{Name: "tags", Definition: definition.List{Item: profileDefinition()}},
		},
	}
	registry := newRegistry(t, map[string]definition.Definition{"account": outer})
	b := builder.New(registry)

	got, err := b.Build(context.Background(), builder.Request{ID: "account", Property: "profile.b"})
	if err != nil {
		t.Fatalf("Build profile.b: %v", err)
	}
	if diff := cmp.Diff(widget.Spec{Kind: widget.KindTextfield, Title: "B"}, got); diff != "" {
		t.Fatalf("spec mismatch (-want +got):\n%s", diff)
	}

	got, err = b.Build(context.Background(), builder.Request{ID: "account", Property: "tags.a"})
	if err != nil {
		t.Fatalf("Build tags.a: %v", err)
	}
	if got.Kind != widget.KindTextfield || !got.Required {
		t.Fatalf("expected list item property, got %+v", got)
	}
}

func TestBuild_NarrowedPropertyIgnoresPolicy(t *testing.T) {
	def := definition.Complex{
		Properties: definition.Properties{
			{Name: "secret", Definition: primitive(definition.DataTypeString, definition.Metadata{Computed: true})},
		},
	}
	registry := newRegistry(t, map[string]definition.Definition{"node": def})
	got, err := builder.New(registry).Build(context.Background(), builder.Request{ID: "node", Property: "secret"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got.Kind != widget.KindTextfield {
		t.Fatalf("expected narrowed property to be built, got %+v", got)
	}
}

func TestBuild_DepthGuard(t *testing.T) {
	props := make(definition.Properties, 1)
	cyclic := definition.Complex{Properties: props}
	props[0] = definition.Property{Name: "self", Definition: cyclic}

	b := builder.New(nil, builder.WithMaxDepth(8))
	_, err := b.BuildDefinition(context.Background(), cyclic, nil)
	if !errors.Is(err, builder.ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	var depthErr *builder.DepthExceededError
	if !errors.As(err, &depthErr) || depthErr.Limit != 8 {
		t.Fatalf("expected limit 8, got %#v", err)
	}
}

func TestBuild_AlterHook(t *testing.T) {
	hook := func(kind string, def definition.Primitive) string {
		if kind == widget.KindSelect && def.Label == "Tone" {
			return widget.KindTextfield
		}
		return ""
	}
	def := definition.Complex{
		Properties: definition.Properties{
			{Name: "tone", Definition: primitive(definition.DataTypeString, definition.Metadata{Label: "Tone"},
				definition.AllowedValues(definition.Choice{Value: "warm"}))},
			{Name: "size", Definition: primitive(definition.DataTypeString, definition.Metadata{Label: "Size"},
				definition.AllowedValues(definition.Choice{Value: "xl", Label: "Extra large"}))},
		},
	}
	got, err := builder.New(nil, builder.WithAlterHook(hook)).BuildDefinition(context.Background(), def, nil)
	if err != nil {
		t.Fatalf("BuildDefinition: %v", err)
	}
	tone, _ := got.Child("tone")
	size, _ := got.Child("size")
	if diff := cmp.Diff(widget.Spec{Kind: widget.KindTextfield, Title: "Tone"}, tone); diff != "" {
		t.Fatalf("altered spec mismatch (-want +got):\n%s", diff)
	}
	if size.Kind != widget.KindSelect {
		t.Fatalf("expected identity for size, got %q", size.Kind)
	}
	if diff := cmp.Diff(widget.Options{{Value: "xl", Label: "Extra large"}}, size.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_TextSanitizer(t *testing.T) {
	def := primitive(definition.DataTypeString, definition.Metadata{Label: "<b>Name</b>", Description: "Tom &amp; <i>Jerry</i>"})
	got, err := builder.New(nil, builder.WithTextSanitizer(widget.StripMarkup)).BuildDefinition(context.Background(), def, nil)
	if err != nil {
		t.Fatalf("BuildDefinition: %v", err)
	}
	if got.Title != "Name" || got.Description != "Tom & Jerry" {
		t.Fatalf("expected sanitized text, got %q / %q", got.Title, got.Description)
	}

	encoded := primitive(definition.DataTypeString, definition.Metadata{},
		definition.AllowedValues(definition.Choice{Value: "a", Label: "&lt;script&gt;alert(1)&lt;/script&gt;Alpha"}))
	encoded.Label = "&lt;img src=x onerror=alert(1)&gt;Encoded"
	got, err = builder.New(nil, builder.WithTextSanitizer(widget.StripMarkup)).BuildDefinition(context.Background(), encoded, nil)
	if err != nil {
		t.Fatalf("BuildDefinition: %v", err)
	}
	if got.Title != "Encoded" || got.Options[0].Label != "Alpha" {
		t.Fatalf("expected entity-encoded markup stripped, got %q / %q", got.Title, got.Options[0].Label)
	}
}

func TestBuildFromInstance(t *testing.T) {
	b := builder.New(nil)
	got, err := b.BuildFromInstance(context.Background(), definition.Value{
		Def:  primitive(definition.DataTypeBoolean, definition.Metadata{Label: "On"}),
		Data: true,
	})
	if err != nil {
		t.Fatalf("BuildFromInstance: %v", err)
	}
	if got.Kind != widget.KindCheckbox {
		t.Fatalf("expected checkbox, got %q", got.Kind)
	}

	if _, err := b.BuildFromInstance(context.Background(), definition.Value{}); !errors.Is(err, builder.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty instance, got %v", err)
	}
}

func articleEntity() definition.EntityReference {
	return definition.EntityReference{
		Metadata:     definition.Metadata{Label: "Article"},
		EntityTypeID: "article",
		Values:       map[string]any{"type": "news"},
		Properties: definition.Properties{
			{Name: "title", Definition: primitive(definition.DataTypeString, definition.Metadata{Label: "Title", Required: true})},
			{Name: "published", Definition: primitive(definition.DataTypeBoolean, definition.Metadata{Label: "Published"})},
		},
	}
}

func TestBuild_EntityDelegateStripsActions(t *testing.T) {
	var gotValues map[string]any
	delegate := entity.FormDelegateFunc(func(_ context.Context, typeID string, values map[string]any) (widget.Spec, error) {
		if typeID != "article" {
			return widget.Spec{}, fmt.Errorf("unexpected type %q", typeID)
		}
		gotValues = values
		return widget.Spec{
			Kind:      widget.KindContainer,
			Container: true,
			Children: widget.Children{
				{Name: "body", Spec: widget.Spec{Kind: "textarea", Title: "Body"}},
				{Name: "actions", Spec: widget.Spec{Kind: "actions", Children: widget.Children{{Name: "submit", Spec: widget.Spec{Kind: "submit"}}}}},
			},
		}, nil
	})
	registry := newRegistry(t, map[string]definition.Definition{"article": articleEntity()})
	b := builder.New(registry, builder.WithEntityForms(delegate))

	got, err := b.Build(context.Background(), builder.Request{ID: "article", Values: map[string]any{"lang": "en"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]string{"body"}, got.Children.Names()); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"type": "news", "lang": "en"}, gotValues); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	body, err := b.Build(context.Background(), builder.Request{ID: "article", Property: "body"})
	if err != nil {
		t.Fatalf("Build body: %v", err)
	}
	if body.Title != "Body" {
		t.Fatalf("expected delegated body subtree, got %+v", body)
	}

	missing, err := b.Build(context.Background(), builder.Request{ID: "article", Property: "unknown"})
	if err != nil {
		t.Fatalf("Build unknown entity property: %v", err)
	}
	if !missing.IsZero() {
		t.Fatalf("expected empty spec for absent entity property, got %+v", missing)
	}
}

func TestBuild_EntityFallsBackToProperties(t *testing.T) {
	registry := newRegistry(t, map[string]definition.Definition{"article": articleEntity()})
	want := widget.Spec{
		Kind:      widget.KindFieldset,
		Title:     "Article",
		Container: true,
		Children: widget.Children{
			{Name: "title", Spec: widget.Spec{Kind: widget.KindTextfield, Title: "Title", Required: true}},
			{Name: "published", Spec: widget.Spec{Kind: widget.KindCheckbox, Title: "Published"}},
		},
	}

	manager := entity.NewManager()
	manager.MustRegister(entity.Type{ID: "article"})

	delegates := map[string]entity.FormDelegate{
		"no delegate": nil,
		"unavailable": entity.FormDelegateFunc(func(context.Context, string, map[string]any) (widget.Spec, error) {
			return widget.Spec{}, entity.ErrUnavailable
		}),
		"manager without handler": manager,
	}
	for name, delegate := range delegates {
		t.Run(name, func(t *testing.T) {
			b := builder.New(registry, builder.WithEntityForms(delegate))
			got, err := b.Build(context.Background(), builder.Request{ID: "article"})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("spec mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_EntityDeclaredPropertyNarrowsDirectly(t *testing.T) {
	calls := 0
	delegate := entity.FormDelegateFunc(func(context.Context, string, map[string]any) (widget.Spec, error) {
		calls++
		return widget.Spec{}, nil
	})
	registry := newRegistry(t, map[string]definition.Definition{"article": articleEntity()})
	got, err := builder.New(registry, builder.WithEntityForms(delegate)).
		Build(context.Background(), builder.Request{ID: "article", Property: "published"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got.Kind != widget.KindCheckbox {
		t.Fatalf("expected checkbox, got %+v", got)
	}
	if calls != 0 {
		t.Fatalf("expected delegate to be skipped, got %d calls", calls)
	}
}

func TestBuild_EntityCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	delegate := entity.FormDelegateFunc(func(context.Context, string, map[string]any) (widget.Spec, error) {
		cancel()
		return widget.Spec{}, context.Canceled
	})
	_, err := builder.New(nil, builder.WithEntityForms(delegate)).BuildDefinition(ctx, articleEntity(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
