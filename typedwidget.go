// Package typedwidget turns typed data definitions into renderer-agnostic
// widget spec trees. The subpackages hold the moving parts; this package
// wires the common combinations.
package typedwidget

import (
	"context"
	"fmt"
	"io/fs"

	internalLoader "github.com/goliatone/go-typedwidget/internal/openapi/loader"
	internalParser "github.com/goliatone/go-typedwidget/internal/openapi/parser"
	"github.com/goliatone/go-typedwidget/pkg/builder"
	"github.com/goliatone/go-typedwidget/pkg/definition"
	pkgopenapi "github.com/goliatone/go-typedwidget/pkg/openapi"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// Request aliases builder.Request so simple callers only import this package.
type Request = builder.Request

// NewLoader constructs an OpenAPI document loader.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewParser constructs a parser converting OpenAPI component schemas into
// definitions.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	return internalParser.New(pkgopenapi.NewParserOptions(options...))
}

// OpenAPIOption configures NewOpenAPIResolver.
type OpenAPIOption func(*openAPIConfig)

type openAPIConfig struct {
	loader []pkgopenapi.LoaderOption
	parser  []pkgopenapi.ParserOption
}

// WithLoaderOptions forwards options to the document loader.
func WithLoaderOptions(options ...pkgopenapi.LoaderOption) OpenAPIOption {
	return func(c *openAPIConfig) {
		c.loader = append(c.loader, options...)
	}
}

// WithParserOptions forwards options to the schema parser.
func WithParserOptions(options ...pkgopenapi.ParserOption) OpenAPIOption {
	return func(c *openAPIConfig) {
		c.parser = append(c.parser, options...)
	}
}

// NewOpenAPIResolver loads src and registers one definition per component
// schema, keyed by schema name.
func NewOpenAPIResolver(ctx context.Context, src pkgopenapi.Source, options ...OpenAPIOption) (*definition.Registry, error) {
	var cfg openAPIConfig
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	doc, err := NewLoader(cfg.loader...).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	defs, err := NewParser(cfg.parser...).Definitions(ctx, doc)
	if err != nil {
		return nil, err
	}

	registry := definition.NewRegistry()
	for name, def := range defs {
		if err := registry.Register(name, def); err != nil {
			return nil, fmt.Errorf("typedwidget: register schema %q: %w", name, err)
		}
	}
	return registry, nil
}

// NewBuilderFromFS loads every definition file in fsys and returns a builder
// resolving against them.
func NewBuilderFromFS(fsys fs.FS, options ...builder.Option) (*builder.Builder, error) {
	registry, err := definition.LoadFS(fsys)
	if err != nil {
		return nil, err
	}
	return builder.New(registry, options...), nil
}

// BuildFromFS is the one-shot form of NewBuilderFromFS followed by Build.
func BuildFromFS(ctx context.Context, fsys fs.FS, req Request, options ...builder.Option) (widget.Spec, error) {
	b, err := NewBuilderFromFS(fsys, options...)
	if err != nil {
		return widget.Spec{}, err
	}
	return b.Build(ctx, req)
}
