package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	pkgopenapi "github.com/goliatone/go-typedwidget/pkg/openapi"
)

const minimalDocument = `{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {}}`

func TestLoader_Sources(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "api.json")
	if err := os.WriteFile(path, []byte(minimalDocument), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(minimalDocument))
	}))
	defer server.Close()

	loader := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(fstest.MapFS{"specs/api.json": {Data: []byte(minimalDocument)}}),
		pkgopenapi.WithHTTPFallback(0),
	))

	remote, err := pkgopenapi.SourceFromURL(server.URL + "/openapi.json")
	if err != nil {
		t.Fatalf("SourceFromURL: %v", err)
	}

	sources := map[string]pkgopenapi.Source{
		"file": pkgopenapi.SourceFromFile(path),
		"fs":   pkgopenapi.SourceFromFS("specs/api.json"),
		"url":  remote,
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			doc, err := loader.Load(ctx, src)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(doc.Raw()) != minimalDocument {
				t.Fatalf("unexpected payload %q", doc.Raw())
			}
			if doc.Location() != src.Location() {
				t.Fatalf("expected location %q, got %q", src.Location(), doc.Location())
			}
		})
	}

	missing, _ := pkgopenapi.SourceFromURL(server.URL + "/missing")
	if _, err := loader.Load(ctx, missing); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestLoader_HTTPDisabledByDefault(t *testing.T) {
	src, err := pkgopenapi.SourceFromURL("https://example.com/openapi.json")
	if err != nil {
		t.Fatalf("SourceFromURL: %v", err)
	}
	if _, err := New(pkgopenapi.NewLoaderOptions()).Load(context.Background(), src); err == nil {
		t.Fatalf("expected http sources to be disabled")
	}
}

func TestLoader_FSWithoutFilesystem(t *testing.T) {
	_, err := New(pkgopenapi.LoaderOptions{}).Load(context.Background(), pkgopenapi.SourceFromFS("api.json"))
	if err == nil {
		t.Fatalf("expected error without filesystem")
	}
}

func TestLoader_LoadErrors(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	gone, _ := pkgopenapi.SourceFromURL(server.URL + "/gone")
	broken, _ := pkgopenapi.SourceFromURL(server.URL + "/broken")

	loader := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(fstest.MapFS{"empty.json": {Data: nil}}),
		pkgopenapi.WithHTTPFallback(0),
	))

	tests := []struct {
		name     string
		src      pkgopenapi.Source
		notFound bool
		status   int
	}{
		{name: "missing file", src: pkgopenapi.SourceFromFile(filepath.Join(t.TempDir(), "nope.yaml")), notFound: true},
		{name: "missing fs entry", src: pkgopenapi.SourceFromFS("specs/nope.yaml"), notFound: true},
		{name: "empty fs entry", src: pkgopenapi.SourceFromFS("empty.json")},
		{name: "gone url", src: gone, notFound: true, status: http.StatusGone},
		{name: "server error", src: broken, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(ctx, tt.src)
			var loadErr *pkgopenapi.LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
			if loadErr.Source.Location() != tt.src.Location() {
				t.Fatalf("expected source %q, got %q", tt.src.Location(), loadErr.Source.Location())
			}
			if got := errors.Is(err, pkgopenapi.ErrSourceNotFound); got != tt.notFound {
				t.Fatalf("errors.Is(ErrSourceNotFound) = %t, want %t (%v)", got, tt.notFound, err)
			}
			var status *pkgopenapi.StatusError
			if tt.status != 0 && (!errors.As(err, &status) || status.Code != tt.status) {
				t.Fatalf("expected status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loader := New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithFileSystem(fstest.MapFS{})))
	if _, err := loader.Load(ctx, pkgopenapi.SourceFromFS("api.json")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSourceFromFS_NormalisesNames(t *testing.T) {
	tests := map[string]string{
		"./specs/api.json": "specs/api.json",
		"/specs/api.json":  "specs/api.json",
		"specs//api.json":  "specs/api.json",
		"":                 "",
	}
	for in, want := range tests {
		if got := pkgopenapi.SourceFromFS(in).Location(); got != want {
			t.Errorf("SourceFromFS(%q) = %q, want %q", in, got, want)
		}
	}
}
