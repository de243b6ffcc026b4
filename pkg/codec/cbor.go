package codec

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// Core Deterministic Encoding sorts map keys, so ordered collections travel
// as arrays of pairs.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborSpec struct {
	Kind        string            `cbor:"kind,omitempty"`
	Title       string            `cbor:"title,omitempty"`
	Description string            `cbor:"description,omitempty"`
	Required    bool              `cbor:"required,omitempty"`
	Disabled    bool              `cbor:"disabled,omitempty"`
	Min         *float64          `cbor:"min,omitempty"`
	Max         *float64          `cbor:"max,omitempty"`
	Options     [][2]string       `cbor:"options,omitempty"`
	Container   bool              `cbor:"isContainer,omitempty"`
	Children    []cborChild       `cbor:"children,omitempty"`
	Attributes  map[string]string `cbor:"attributes,omitempty"`
}

type cborChild struct {
	Name string   `cbor:"name,omitempty"`
	Spec cborSpec `cbor:"spec"`
}

func encodeCBOR(w io.Writer, spec widget.Spec) error {
	if err := cborEnc.NewEncoder(w).Encode(toCBOR(spec)); err != nil {
		return fmt.Errorf("codec: encode cbor: %w", err)
	}
	return nil
}

// DecodeCBOR reads a spec written with FormatCBOR.
func DecodeCBOR(data []byte) (widget.Spec, error) {
	var wire cborSpec
	if err := cborDec.Unmarshal(data, &wire); err != nil {
		return widget.Spec{}, fmt.Errorf("codec: decode cbor: %w", err)
	}
	return fromCBOR(wire), nil
}

func toCBOR(spec widget.Spec) cborSpec {
	wire := cborSpec{
		Kind:        spec.Kind,
		Title:       spec.Title,
		Description: spec.Description,
		Required:    spec.Required,
		Disabled:    spec.Disabled,
		Min:         spec.Min,
		Max:         spec.Max,
		Container:   spec.Container,
		Attributes:  spec.Attributes,
	}
	for _, opt := range spec.Options {
		wire.Options = append(wire.Options, [2]string{opt.Value, opt.Label})
	}
	for _, child := range spec.Children {
		wire.Children = append(wire.Children, cborChild{Name: child.Name, Spec: toCBOR(child.Spec)})
	}
	return wire
}

func fromCBOR(wire cborSpec) widget.Spec {
	spec := widget.Spec{
		Kind:        wire.Kind,
		Title:       wire.Title,
		Description: wire.Description,
		Required:    wire.Required,
		Disabled:    wire.Disabled,
		Min:         wire.Min,
		Max:         wire.Max,
		Container:   wire.Container,
	}
	if len(wire.Attributes) > 0 {
		spec.Attributes = wire.Attributes
	}
	for _, pair := range wire.Options {
		spec.Options = append(spec.Options, widget.Option{Value: pair[0], Label: pair[1]})
	}
	for _, child := range wire.Children {
		spec.Children = append(spec.Children, widget.Child{Name: child.Name, Spec: fromCBOR(child.Spec)})
	}
	return spec
}
