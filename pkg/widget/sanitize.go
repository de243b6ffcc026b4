package widget

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer cleans human-readable strings (titles, descriptions, option
// labels) before they land in a spec.
type TextSanitizer func(string) string

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// maxStripPasses bounds the decode/sanitize loop for nested entity encodings.
const maxStripPasses = 8

// StripMarkup removes every HTML element from raw and returns plain text.
// Entities are decoded before each policy pass, so entity-encoded markup is
// stripped as well and "Tom &amp; Jerry" reads "Tom & Jerry". The result is
// a fixed point: decoding it and sanitizing again changes nothing.
func StripMarkup(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	policy := textSanitizer()
	for i := 0; i < maxStripPasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(policy.Sanitize(html.UnescapeString(text))))
		if next == text {
			return text
		}
		text = next
	}
	// Not converged: keep the policy output escaped.
	return strings.TrimSpace(policy.Sanitize(html.UnescapeString(text)))
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// Sanitize applies fn to every human-readable string of s and its children.
// A nil fn returns s unchanged.
func Sanitize(s Spec, fn TextSanitizer) Spec {
	if fn == nil {
		return s
	}
	out := s
	out.Title = fn(s.Title)
	out.Description = fn(s.Description)
	if len(s.Options) > 0 {
		out.Options = make(Options, len(s.Options))
		for i, opt := range s.Options {
			out.Options[i] = Option{Value: opt.Value, Label: fn(opt.Label)}
		}
	}
	if len(s.Children) > 0 {
		out.Children = make(Children, len(s.Children))
		for i, child := range s.Children {
			out.Children[i] = Child{Name: child.Name, Spec: Sanitize(child.Spec, fn)}
		}
	}
	return out
}
