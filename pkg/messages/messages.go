// Package messages holds the message ids shared by validation, rendering and
// submission, plus the Translator contract used to resolve them.
package messages

import (
	"strings"

	catalog "github.com/goliatone/go-formwise/internal/locale"
)

// Translator resolves a message id for a locale. An optional first argument of
// type map[string]any carries template data.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler produces the string used when a translation is
// unavailable.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// Message ids.
const (
	FieldRequired  = "field_required"
	FieldTooShort  = "field_too_short"
	FieldTooLong   = "field_too_long"
	NumberInvalid  = "number_invalid"
	NumberTooSmall = "number_too_small"
	NumberTooLarge = "number_too_large"
	DateInvalid    = "date_invalid"
	DateTooEarly   = "date_too_early"
	DateTooLate    = "date_too_late"
	EmailInvalid   = "email_invalid"
	URLInvalid     = "url_invalid"
	OptionInvalid  = "option_invalid"
	OptionsInvalid = "options_invalid"
	ValueInvalid   = "value_invalid"

	PlaceholderAnswer = "placeholder_answer"
	PlaceholderSelect = "placeholder_select"
	PlaceholderDate   = "placeholder_date"

	HintLengthRange = "hint_length_range"
	HintLengthMin   = "hint_length_min"
	HintLengthMax   = "hint_length_max"
	HintNumberRange = "hint_number_range"
	HintNumberMin   = "hint_number_min"
	HintNumberMax   = "hint_number_max"
	HintDateRange   = "hint_date_range"
	HintDateMin     = "hint_date_min"
	HintDateMax     = "hint_date_max"
	HintMulti       = "hint_multi"

	FormInactive      = "form_inactive"
	SubmitRateLimited = "submit_rate_limited"
	SubmitFailed      = "submit_failed"
	SubmitSucceeded   = "submit_succeeded"
	ActionSubmit      = "action_submit"
)

// Data is the template data passed to translators.
type Data map[string]any

// Format resolves key through t, or through the embedded catalogues when t is
// nil. Unresolvable keys come back verbatim.
func Format(t Translator, locale, key string, data Data) string {
	return FormatWith(t, locale, key, data, nil)
}

// FormatWith is Format with a custom missing-translation handler.
func FormatWith(t Translator, locale, key string, data Data, onMissing MissingTranslationHandler) string {
	if t == nil {
		t = catalog.Default()
	}
	args := []any{map[string]any(data)}
	msg, err := t.Translate(locale, key, args...)
	if err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	if onMissing != nil {
		return onMissing(locale, key, args, err)
	}
	return key
}
