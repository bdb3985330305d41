package tui

import (
	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/submission"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits the submission envelope as application/json.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional prefixes the renderer applies when printing
// messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// FieldValidator checks one answer. *validation.Contract satisfies it.
type FieldValidator interface {
	ValidateField(tag string, value any) (string, bool)
}

// SubmitTransformer mutates collected values before serialization.
type SubmitTransformer func(submission.Values) (submission.Values, error)

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithValidator checks every answer as it is entered; rejected answers are
// reported and asked again.
func WithValidator(v FieldValidator) Option {
	return func(r *Renderer) {
		r.validator = v
	}
}

// WithSubmitTransformer allows callers to mutate collected values prior to
// serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) {
		r.submitTransformer = fn
	}
}

// WithTranslator localises the confirmation text.
func WithTranslator(t messages.Translator, locale string) Option {
	return func(r *Renderer) {
		r.translator = t
		r.locale = locale
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithMaxAttempts bounds how often a rejected answer is asked again. Zero
// means no bound.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.maxAttempts = n
		}
	}
}

// WithConfirmSubmit asks for confirmation once every answer is collected.
// Declining aborts with ErrAborted.
func WithConfirmSubmit(confirm bool) Option {
	return func(r *Renderer) {
		r.confirmSubmit = confirm
	}
}
