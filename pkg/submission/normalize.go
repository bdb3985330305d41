// Package submission turns raw form values into the payload accepted by the
// form service and maps the service's error responses back onto fields.
package submission

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/registry"
)

// ErrIncompleteSubmission means a required field reached the normalizer
// without a value. Validation should have stopped it, so this is a
// programming error.
var ErrIncompleteSubmission = errors.New("submission: incomplete submission")

// IncompleteSubmissionError names the required field that was empty.
type IncompleteSubmissionError struct {
	Tag string
}

func (e *IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("submission: required field %q is empty", e.Tag)
}

// Unwrap exposes ErrIncompleteSubmission to errors.Is.
func (e *IncompleteSubmissionError) Unwrap() error {
	return ErrIncompleteSubmission
}

// Values maps field tags to raw user input.
type Values map[string]any

// Option customises normalization.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger reports incomplete submissions and skipped fields.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Normalize builds the submission payload for form from values. Fields are
// visited in declaration order; empty optional fields are dropped, dates
// become calendar-date strings and multi-select values keep selection order.
func Normalize(form model.FormDefinition, values Values, opts ...Option) (Payload, error) {
	cfg := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	payload := Payload{}
	for _, field := range form.Fields {
		d, err := registry.Describe(field.Type)
		if err != nil {
			cfg.logger.Debug("skipping field with unsupported type",
				zap.String("tag", field.Tag),
				zap.String("type", string(field.Type)),
			)
			continue
		}

		value, err := registry.Coerce(d, values[field.Tag])
		if err != nil {
			return Payload{}, fmt.Errorf("submission: field %q: %w", field.Tag, err)
		}
		if registry.IsEmpty(value) {
			if field.Required {
				cfg.logger.Error("required field reached normalizer empty",
					zap.String("form_id", form.ID),
					zap.String("tag", field.Tag),
				)
				return Payload{}, &IncompleteSubmissionError{Tag: field.Tag}
			}
			continue
		}

		payload.set(field.Tag, wireValue(field, d, value))
	}
	return payload, nil
}

func wireValue(field model.FieldDefinition, d registry.Descriptor, value any) any {
	if f, ok := value.(float64); ok {
		if attrs, ok := field.Number(); ok && attrs.Precision != nil {
			return roundTo(f, *attrs.Precision)
		}
	}
	switch d.Wire {
	case registry.WireCalendarDate:
		if t, ok := value.(time.Time); ok {
			return registry.FormatDate(t)
		}
	case registry.WireStringArray:
		if list, ok := value.([]string); ok {
			return append([]string(nil), list...)
		}
	}
	return value
}

// roundTo rounds half away from zero to the given number of decimals, the
// way the form service stores number answers.
func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
