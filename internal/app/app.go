// Package app assembles resolvers, entity forms and the builder from a
// config.Config. The CLI and the HTTP server share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	typedwidget "github.com/goliatone/go-typedwidget"
	"github.com/goliatone/go-typedwidget/internal/config"
	"github.com/goliatone/go-typedwidget/pkg/builder"
	"github.com/goliatone/go-typedwidget/pkg/codec"
	"github.com/goliatone/go-typedwidget/pkg/definition"
	"github.com/goliatone/go-typedwidget/pkg/entity"
	"github.com/goliatone/go-typedwidget/pkg/httpapi"
	pkgopenapi "github.com/goliatone/go-typedwidget/pkg/openapi"
	"github.com/goliatone/go-typedwidget/pkg/visibility"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

const (
	openAPITimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// App holds the wired components.
type App struct {
	Config   config.Config
	Resolver definition.Chain
	Entities *entity.Manager
	Builder  *builder.Builder
	Format   codec.Format
	Logger   *slog.Logger
}

// Option adjusts New.
type Option func(*options)

type options struct {
	definitions fs.FS
}

// WithDefinitionsFS reads definition files from fsys instead of
// cfg.Definitions.Dir.
func WithDefinitionsFS(fsys fs.FS) Option {
	return func(o *options) {
		o.definitions = fsys
	}
}

// New loads every configured definition source and builds the App.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	format, err := codec.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	chain, err := loadResolvers(ctx, cfg, o, logger)
	if err != nil {
		return nil, err
	}

	policy := visibility.Policy{
		IncludeNonRequired: cfg.Builder.IncludeNonRequired,
		IncludeReadOnly:    cfg.Builder.IncludeReadOnly,
	}
	entities, err := registerEntityForms(chain, policy, logger)
	if err != nil {
		return nil, err
	}

	builderOptions := []builder.Option{
		builder.WithPolicy(policy),
		builder.WithMaxDepth(cfg.Builder.MaxDepth),
		builder.WithEntityForms(entities),
		builder.WithLogger(logger),
	}
	if cfg.Builder.Sanitize {
		builderOptions = append(builderOptions, builder.WithTextSanitizer(widget.StripMarkup))
	}

	return &App{
		Config:   cfg,
		Resolver: chain,
		Entities: entities,
		Builder:  builder.New(chain, builderOptions...),
		Format:   format,
		Logger:   logger,
	}, nil
}

func loadResolvers(ctx context.Context, cfg config.Config, o options, logger *slog.Logger) (definition.Chain, error) {
	var chain definition.Chain

	files := o.definitions
	if files == nil && cfg.Definitions.Dir != "" {
		info, err := os.Stat(cfg.Definitions.Dir)
		switch {
		case err == nil && info.IsDir():
			files = os.DirFS(cfg.Definitions.Dir)
		case err == nil:
			return nil, fmt.Errorf("app: definitions path %q is not a directory", cfg.Definitions.Dir)
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("app: definitions directory missing", "dir", cfg.Definitions.Dir)
		default:
			return nil, fmt.Errorf("app: definitions directory: %w", err)
		}
	}
	if files != nil {
		registry, err := definition.LoadFS(files)
		if err != nil {
			return nil, err
		}
		logger.Info("app: loaded definitions", "count", registry.Len())
		chain = append(chain, registry)
	}

	if cfg.Definitions.OpenAPI != "" {
		src, err := pkgopenapi.ParseSource(cfg.Definitions.OpenAPI)
		if err != nil {
			return nil, err
		}
		registry, err := typedwidget.NewOpenAPIResolver(ctx, src,
			typedwidget.WithLoaderOptions(pkgopenapi.WithHTTPFallback(openAPITimeout)))
		if err != nil {
			return nil, fmt.Errorf("app: openapi %s: %w", src.Location(), err)
		}
		logger.Info("app: loaded openapi schemas", "source", src.Location(), "count", registry.Len())
		chain = append(chain, registry)
	}

	if len(chain) == 0 {
		return nil, errors.New("app: no definition sources configured")
	}
	return chain, nil
}

// registerEntityForms registers one entity type per distinct entity type id
// found in the resolvers. Each type's default form lays out the entity's own
// properties followed by a save action, which the builder strips when it
// embeds the form.
func registerEntityForms(chain definition.Chain, policy visibility.Policy, logger *slog.Logger) (*entity.Manager, error) {
	manager := entity.NewManager()
	inner := builder.New(nil, builder.WithPolicy(policy), builder.WithLogger(logger))

	seen := make(map[string]bool)
	var visit func(def definition.Definition)
	visit = func(def definition.Definition) {
		switch d := def.(type) {
		case definition.EntityReference:
			if !seen[d.EntityTypeID] {
				seen[d.EntityTypeID] = true
				manager.MustRegister(entity.Type{
					ID:    d.EntityTypeID,
					Label: d.Label,
					Form:  defaultForm(inner, policy, d),
				})
			}
			for _, p := range d.Properties {
				visit(p.Definition)
			}
		case definition.Complex:
			for _, p := range d.Properties {
				visit(p.Definition)
			}
		case definition.List:
			visit(d.Item)
		case definition.Field:
			visit(d.Item)
		}
	}

	ctx := context.Background()
	for _, id := range chain.IDs() {
		def, err := chain.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("app: resolve %q: %w", id, err)
		}
		visit(def)
	}
	if len(seen) > 0 {
		logger.Debug("app: registered entity types", "count", len(seen))
	}
	return manager, nil
}

func defaultForm(b *builder.Builder, policy visibility.Policy, ref definition.EntityReference) entity.FormHandler {
	layout := definition.Complex{Metadata: ref.Metadata, Properties: ref.Properties}
	return entity.FormHandlerFunc(func(ctx context.Context, _ *entity.Entity) (widget.Spec, error) {
		spec, err := b.BuildDefinition(ctx, layout, &policy)
		if err != nil {
			return widget.Spec{}, err
		}
		if !spec.Container {
			form := widget.Spec{Kind: widget.KindFieldset, Title: ref.Label, Container: true}
			if !spec.IsZero() {
				form.Children = widget.Children{{Name: firstIncluded(policy, ref.Properties), Spec: spec}}
			}
			spec = form
		}
		spec.Children = append(spec.Children, widget.Child{
			Name: entity.ActionsChild,
			Spec: widget.Spec{Kind: entity.KindActions, Container: true, Children: widget.Children{
				{Name: "save", Spec: widget.Spec{Kind: entity.KindSubmit, Title: "Save"}},
			}},
		})
		return spec, nil
	})
}

func firstIncluded(policy visibility.Policy, props definition.Properties) string {
	for _, p := range props {
		if policy.IncludeDefinition(p.Definition) {
			return p.Name
		}
	}
	return ""
}

// Handler returns the HTTP API for the App.
func (a *App) Handler() http.Handler {
	return httpapi.New(a.Builder,
		httpapi.WithLister(a.Resolver),
		httpapi.WithFormat(a.Format),
		httpapi.WithLogger(a.Logger),
	).Routes()
}

// Serve runs the HTTP API on cfg.Server.Addr until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	a.Logger.Info("app: listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
