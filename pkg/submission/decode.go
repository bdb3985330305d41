package submission

import (
	"fmt"
	"time"

	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/registry"
)

// Decode parses submitted answers (as decoded from JSON) back into native
// values: dates become time.Time at midnight UTC, multi-select answers
// []string and numbers float64. Answers for unknown tags or unsupported field
// types are ignored.
func Decode(form model.FormDefinition, answers map[string]any) (Values, error) {
	out := make(Values, len(answers))
	for _, field := range form.Fields {
		raw, ok := answers[field.Tag]
		if !ok {
			continue
		}
		d, err := registry.Describe(field.Type)
		if err != nil {
			continue
		}
		value, err := registry.Coerce(d, raw)
		if err != nil {
			return nil, fmt.Errorf("submission: decode %q: %w", field.Tag, err)
		}
		if value != nil {
			out[field.Tag] = value
		}
	}
	return out, nil
}

// Snapshot deep-copies values so a payload built from the copy is not
// affected by later edits to the original.
func Snapshot(values Values) Values {
	if values == nil {
		return Values{}
	}
	out := make(Values, len(values))
	for tag, value := range values {
		out[tag] = copyValue(value)
	}
	return out
}

func copyValue(value any) any {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = copyValue(item)
		}
		return out
	case *string:
		if v == nil {
			return v
		}
		s := *v
		return &s
	case *float64:
		if v == nil {
			return v
		}
		f := *v
		return &f
	case *time.Time:
		if v == nil {
			return v
		}
		t := *v
		return &t
	default:
		return v
	}
}
