// Package testsupport holds golden-file helpers shared by package tests.
// Set UPDATE_GOLDENS=1 to rewrite goldens from the current output.
package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/goliatone/go-typedwidget/pkg/openapi"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// UpdateGoldens reports whether goldens should be rewritten.
func UpdateGoldens() bool {
	return os.Getenv("UPDATE_GOLDENS") != ""
}

// LoadDocument reads an OpenAPI fixture into a Document with a file source.
func LoadDocument(t *testing.T, path string) pkgopenapi.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath is LoadDocument for callers without a testing.T.
func LoadDocumentFromPath(path string) (pkgopenapi.Document, error) {
	if path == "" {
		return pkgopenapi.Document{}, errors.New("testsupport: document path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile(path), data)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc, nil
}

// LoadSpec reads a JSON golden into a widget spec.
func LoadSpec(path string) (widget.Spec, error) {
	if path == "" {
		return widget.Spec{}, errors.New("testsupport: golden path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return widget.Spec{}, fmt.Errorf("testsupport: read golden: %w", err)
	}
	var out widget.Spec
	if err := json.Unmarshal(data, &out); err != nil {
		return widget.Spec{}, fmt.Errorf("testsupport: unmarshal golden: %w", err)
	}
	return out, nil
}

// WriteSpec writes spec as an indented JSON golden.
func WriteSpec(path string, spec widget.Spec) error {
	payload, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("testsupport: marshal golden: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("testsupport: mkdir golden dir: %w", err)
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

// CompareGolden fails t when got differs from the golden at path. With
// UPDATE_GOLDENS set the golden is rewritten instead.
func CompareGolden(t *testing.T, path string, got widget.Spec) {
	t.Helper()

	if UpdateGoldens() {
		if err := WriteSpec(path, got); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		return
	}
	want, err := LoadSpec(path)
	if err != nil {
		t.Fatalf("load golden: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("golden mismatch %s (-want +got):\n%s", path, diff)
	}
}
