package loader

import (
	"context"
	"errors"
	"net/http"

	pkgopenapi "github.com/goliatone/go-typedwidget/pkg/openapi"
)

// fetchFunc reads the payload at location for one source kind.
type fetchFunc func(ctx context.Context, location string) ([]byte, error)

// errNoFilesystem is returned for fs sources when no fs.FS was configured.
var errNoFilesystem = errors.New("filesystem is not configured")

// Loader implements pkgopenapi.Loader with one fetch strategy per source
// kind. URL sources only get a strategy when an HTTP client is configured.
type Loader struct {
	strategies map[pkgopenapi.SourceKind]fetchFunc
}

var _ pkgopenapi.Loader = (*Loader)(nil)

// New constructs a Loader from resolved options.
func New(options pkgopenapi.LoaderOptions) *Loader {
	l := &Loader{strategies: map[pkgopenapi.SourceKind]fetchFunc{
		pkgopenapi.SourceKindFile: loadFile,
		pkgopenapi.SourceKindFS: func(ctx context.Context, name string) ([]byte, error) {
			return loadFromFS(ctx, options.FileSystem, name)
		},
	}}
	if client := httpClient(options); client != nil {
		timeout := options.RequestTimeout
		l.strategies[pkgopenapi.SourceKindURL] = func(ctx context.Context, url string) ([]byte, error) {
			return loadHTTP(ctx, client, url, timeout)
		}
	}
	return l
}

func httpClient(options pkgopenapi.LoaderOptions) *http.Client {
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if options.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		return &clone
	case options.AllowHTTPFallback:
		return &http.Client{Timeout: options.RequestTimeout}
	default:
		return nil
	}
}

// Load reads the document behind src. Failures other than context
// cancellation are returned as *pkgopenapi.LoadError.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src == nil {
		return pkgopenapi.Document{}, errors.New("openapi loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return pkgopenapi.Document{}, err
	}

	fetch, ok := l.strategies[src.Kind()]
	if !ok {
		if src.Kind() == pkgopenapi.SourceKindURL {
			return pkgopenapi.Document{}, &pkgopenapi.LoadError{Source: src, Err: errors.New("http support disabled")}
		}
		return pkgopenapi.Document{}, &pkgopenapi.LoadError{Source: src, Err: errors.New("unsupported source kind")}
	}

	data, err := fetch(ctx, src.Location())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return pkgopenapi.Document{}, ctxErr
		}
		return pkgopenapi.Document{}, &pkgopenapi.LoadError{Source: src, Err: err}
	}
	doc, err := pkgopenapi.NewDocument(src, data)
	if err != nil {
		return pkgopenapi.Document{}, &pkgopenapi.LoadError{Source: src, Err: err}
	}
	return doc, nil
}

