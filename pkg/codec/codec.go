// Package codec serializes widget spec trees for consumers outside the
// process. Every format keeps children and options in declaration order.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCBOR}
}

// ParseFormat normalises name into a Format. An empty name means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("codec: unsupported format %q", name)
	}
}

// ContentType returns the media type for format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatCBOR:
		return "application/cbor"
	default:
		return "application/json"
	}
}

// Encode writes spec to w in format.
func Encode(w io.Writer, spec widget.Spec, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(spec); err != nil {
			return fmt.Errorf("codec: encode json: %w", err)
		}
		return nil
	case FormatYAML:
		return encodeYAML(w, spec)
	case FormatCBOR:
		return encodeCBOR(w, spec)
	default:
		return fmt.Errorf("codec: unsupported format %q", format)
	}
}

// Marshal is Encode into a byte slice.
func Marshal(spec widget.Spec, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, spec, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
