package openapi

import (
	"context"

	"github.com/goliatone/go-typedwidget/pkg/definition"
)

// Parser converts the component schemas of a Document into definitions keyed
// by schema name.
type Parser interface {
	Definitions(ctx context.Context, doc Document) (map[string]definition.Definition, error)
}

// Extensions understood by the parser.
const (
	ExtensionComputed   = "x-computed"
	ExtensionEntityType = "x-entity-type"
	ExtensionTargetType = "x-target-type"
)

// ParserOptions toggles parser behaviour.
type ParserOptions struct {
	// ResolveReferences allows external $ref documents. Local component
	// references are always resolved.
	ResolveReferences bool

	// Validate runs kin-openapi document validation before conversion.
	Validate bool

	// Types supplies the primitive type descriptors. Nil means
	// definition.DefaultTypes().
	Types *definition.TypeTable
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithReferenceResolution toggles external reference resolution.
func WithReferenceResolution(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithValidation toggles document validation.
func WithValidation(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.Validate = enabled
	}
}

// WithTypes sets the primitive type descriptor table.
func WithTypes(table *definition.TypeTable) ParserOption {
	return func(opts *ParserOptions) {
		opts.Types = table
	}
}

// NewParserOptions applies options over the defaults: no external refs, no
// validation, built-in types.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Types == nil {
		cfg.Types = definition.DefaultTypes()
	}
	return cfg
}
