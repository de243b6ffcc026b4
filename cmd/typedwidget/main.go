// Command typedwidget prints the widget spec tree for a definition, or serves
// the HTTP API with --serve.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/goliatone/go-typedwidget/internal/app"
	"github.com/goliatone/go-typedwidget/internal/config"
	"github.com/goliatone/go-typedwidget/internal/prompt"
	"github.com/goliatone/go-typedwidget/pkg/builder"
	"github.com/goliatone/go-typedwidget/pkg/codec"
	"github.com/goliatone/go-typedwidget/pkg/definition"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "typedwidget: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

type options struct {
	configPath string
	id         string
	property   string
	items      int
	itemsSet   bool
	values     map[string]string
	output     string
	serve      bool
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	defaults := config.Default()

	flags := pflag.NewFlagSet("typedwidget", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./typedwidget.yaml or $TYPEDWIDGET_CONFIG)")
	flags.StringVarP(&opts.id, "id", "i", "", "definition id to build")
	flags.StringVarP(&opts.property, "property", "p", "", "dot separated property path inside the definition")
	flags.IntVar(&opts.items, "items", 0, "build a list definition with this many exemplars")
	flags.StringToStringVar(&opts.values, "value", nil, "instantiation value for entity definitions (key=value, repeatable)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	flags.BoolVar(&opts.serve, "serve", false, "serve the HTTP API instead of printing a spec")

	flags.String("definitions", defaults.Definitions.Dir, "directory of definition files")
	flags.String("openapi", defaults.Definitions.OpenAPI, "OpenAPI document path or URL")
	flags.Bool("non-required", defaults.Builder.IncludeNonRequired, "include optional properties")
	flags.Bool("read-only", defaults.Builder.IncludeReadOnly, "include read-only properties")
	flags.Int("max-depth", defaults.Builder.MaxDepth, "maximum nesting depth")
	flags.Bool("sanitize", defaults.Builder.Sanitize, "strip markup from titles, descriptions and option labels")
	flags.String("addr", defaults.Server.Addr, "listen address for --serve")
	flags.StringP("format", "f", defaults.Output.Format, "output format: json, yaml or cbor")
	flags.String("log-level", defaults.Log.Level, "log level: debug, info, warn or error")
	return flags
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	flags := newFlagSet(&opts, stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}
	opts.itemsSet = flags.Changed("items")

	cfg, err := config.Load(opts.configPath, flags)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if opts.serve {
		return a.Serve(ctx)
	}

	spec, err := buildSpec(ctx, a, opts)
	if err != nil {
		return err
	}
	return writeSpec(spec, a.Format, opts.output, stdout)
}

func buildSpec(ctx context.Context, a *app.App, opts options) (widget.Spec, error) {
	if opts.itemsSet {
		if opts.id == "" {
			return widget.Spec{}, errors.New("--items requires --id")
		}
		if opts.property != "" {
			return widget.Spec{}, errors.New("--items cannot be combined with --property")
		}
		return a.Builder.BuildListFromID(ctx, opts.id, opts.items)
	}

	req := builder.Request{ID: opts.id, Property: opts.property}
	if len(opts.values) > 0 {
		req.Values = make(map[string]any, len(opts.values))
		for k, v := range opts.values {
			req.Values[k] = v
		}
	}

	if req.ID == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return widget.Spec{}, errors.New("--id is required when stdin is not a terminal")
		}
		asked, err := prompt.Ask(ctx, prompt.Survey(), a.Resolver.IDs(), a.Builder.Policy())
		if err != nil {
			return widget.Spec{}, err
		}
		asked.Values = req.Values
		req = asked
	}
	return a.Builder.Build(ctx, req)
}

func writeSpec(spec widget.Spec, format codec.Format, path string, stdout io.Writer) error {
	if path == "" {
		return codec.Encode(stdout, spec, format)
	}
	payload, err := codec.Marshal(spec, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// exitCode maps failures to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, definition.ErrNotFound):
		return 3
	case errors.Is(err, builder.ErrInvalidProperty), errors.Is(err, builder.ErrInvalidArgument):
		return 4
	case errors.Is(err, prompt.ErrAborted):
		return 130
	default:
		return 1
	}
}
