package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-typedwidget/pkg/definition"
	pkgopenapi "github.com/goliatone/go-typedwidget/pkg/openapi"
)

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) *Parser {
	if options.Types == nil {
		options.Types = definition.DefaultTypes()
	}
	return &Parser{options: options}
}

// Definitions converts every entry of components.schemas into a definition
// keyed by schema name.
func (p *Parser) Definitions(ctx context.Context, doc pkgopenapi.Document) (map[string]definition.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi parser: document declares no component schemas")
	}

	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	conv := newConverter(p.options.Types)
	out := make(map[string]definition.Definition, len(names))
	for _, name := range names {
		def, err := conv.convert(name, spec.Components.Schemas[name], false)
		if err != nil {
			return nil, err
		}
		out[name] = def
	}
	return out, nil
}
