package openapi

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
)

// ErrSourceNotFound matches load failures caused by a missing file, fs entry
// or a 404/410 response.
var ErrSourceNotFound = errors.New("openapi: source not found")

// LoadError reports which source a loader failed to read.
type LoadError struct {
	Source Source
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == nil {
		return fmt.Sprintf("openapi: load: %v", e.Err)
	}
	return fmt.Sprintf("openapi: load %s %s: %v", e.Source.Kind(), e.Source.Location(), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSourceNotFound) succeed for missing documents.
func (e *LoadError) Is(target error) bool {
	if target != ErrSourceNotFound {
		return false
	}
	if errors.Is(e.Err, fs.ErrNotExist) {
		return true
	}
	var status *StatusError
	return errors.As(e.Err, &status) && (status.Code == http.StatusNotFound || status.Code == http.StatusGone)
}

// StatusError is a non-2xx response from a URL source.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status " + e.Status
}
