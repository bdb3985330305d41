package render

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// RenderOptions describe per-request data that renderers use to customise
// their output without changing the view.
type RenderOptions struct {
	// Action is the submit target for renderers that emit a form element.
	Action string
	// Values pre-populates controls keyed by field tag.
	Values map[string]any
	// Errors surfaces field-level messages keyed by field tag, typically the
	// contract's error slots.
	Errors map[string]string
	// Notice is a form-level message (for example a failed submit) shown as a
	// banner above the fields.
	Notice string
	// Hidden carries extra hidden inputs such as CSRF tokens.
	Hidden []HiddenField
	// Submitted marks a view rendered after a successful submission.
	Submitted bool
	// Theme overrides the renderer's configured theme for this call.
	Theme *theme.RendererConfig
}

// FieldError returns the trimmed error for tag.
func (o RenderOptions) FieldError(tag string) string {
	if o.Errors == nil {
		return ""
	}
	return strings.TrimSpace(o.Errors[tag])
}

// HiddenField is a hidden form input emitted alongside the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// CSRFToken builds a hidden field carrying token under name (for example
// "_csrf").
func CSRFToken(name, token string) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: token}
}

// CleanHiddenFields drops unnamed fields; later fields win on name
// collisions while keeping first-seen order.
func CleanHiddenFields(fields []HiddenField) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	index := make(map[string]int, len(fields))
	out := make([]HiddenField, 0, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		if i, ok := index[name]; ok {
			out[i].Value = field.Value
			continue
		}
		index[name] = len(out)
		out = append(out, HiddenField{Name: name, Value: field.Value})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
