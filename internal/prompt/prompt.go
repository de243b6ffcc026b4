// Package prompt asks interactively for the build request when the CLI is
// run on a terminal without an explicit definition id.
package prompt

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-typedwidget/pkg/builder"
	"github.com/goliatone/go-typedwidget/pkg/visibility"
)

// Ask walks the user through choosing a definition, an optional property path
// and the inclusion toggles. defaults seeds the confirm prompts.
func Ask(ctx context.Context, d Driver, ids []string, defaults visibility.Policy) (builder.Request, error) {
	if d == nil {
		return builder.Request{}, errors.New("prompt: driver is nil")
	}
	if len(ids) == 0 {
		return builder.Request{}, errors.New("prompt: no definitions to choose from")
	}

	idx, err := d.Select(ctx, "Definition", ids)
	if err != nil {
		return builder.Request{}, err
	}
	if idx < 0 || idx >= len(ids) {
		return builder.Request{}, errors.New("prompt: no definition selected")
	}

	property, err := d.Input(ctx, "Property path (optional)", "Dot separated, e.g. address.city. Leave empty for the whole definition.")
	if err != nil {
		return builder.Request{}, err
	}

	policy := defaults
	if policy.IncludeNonRequired, err = d.Confirm(ctx, "Include optional properties?", defaults.IncludeNonRequired); err != nil {
		return builder.Request{}, err
	}
	if policy.IncludeReadOnly, err = d.Confirm(ctx, "Include read-only properties?", defaults.IncludeReadOnly); err != nil {
		return builder.Request{}, err
	}

	return builder.Request{
		ID:       ids[idx],
		Property: strings.TrimSpace(property),
		Policy:   &policy,
	}, nil
}
