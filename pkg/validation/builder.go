// Package validation derives a per-field validation contract from a form
// definition. Building is a plain data transformation: the contract is a
// list of Rules plus a set of error slots that live for one session.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/registry"
)

// Option customises contract construction.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	translator messages.Translator
	locale     string
}

// WithLogger routes build diagnostics (skipped field types) to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTranslator resolves rule messages through t for locale.
func WithTranslator(t messages.Translator, locale string) Option {
	return func(o *options) {
		o.translator = t
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			o.locale = trimmed
		}
	}
}

// Build derives a contract from form. Unknown field types are skipped and
// logged; structural defects fail with ErrInvalidFormDefinition.
func Build(form model.FormDefinition, opts ...Option) (*Contract, error) {
	cfg := options{
		logger: zap.NewNop(),
		locale: "en",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var (
		problems []DefinitionProblem
		rules    = make([]Rule, 0, len(form.Fields))
		skipped  []string
		seen     = make(map[string]struct{}, len(form.Fields))
	)

	for i, field := range form.Fields {
		tag := strings.TrimSpace(field.Tag)
		if tag == "" {
			problems = append(problems, DefinitionProblem{Reason: fmt.Sprintf("field %d has no tag", i)})
			continue
		}
		if _, dup := seen[tag]; dup {
			problems = append(problems, DefinitionProblem{Tag: tag, Reason: "duplicate tag"})
			continue
		}
		seen[tag] = struct{}{}

		descriptor, err := registry.Describe(field.Type)
		if err != nil {
			if errors.Is(err, registry.ErrUnsupportedFieldType) {
				cfg.logger.Warn("skipping field with unsupported type",
					zap.String("form_id", form.ID),
					zap.String("tag", tag),
					zap.String("type", string(field.Type)),
				)
				skipped = append(skipped, tag)
				continue
			}
			return nil, err
		}

		rule, fieldProblems := ruleFor(field, tag, descriptor)
		if len(fieldProblems) > 0 {
			problems = append(problems, fieldProblems...)
			continue
		}
		rules = append(rules, rule)
	}

	if len(problems) > 0 {
		return nil, &DefinitionError{Problems: problems}
	}

	return newContract(rules, skipped, cfg), nil
}

// MustBuild panics when Build fails. Intended for fixtures.
func MustBuild(form model.FormDefinition, opts ...Option) *Contract {
	contract, err := Build(form, opts...)
	if err != nil {
		panic(err)
	}
	return contract
}

func ruleFor(field model.FieldDefinition, tag string, d registry.Descriptor) (Rule, []DefinitionProblem) {
	rule := Rule{
		Tag:         tag,
		Label:       field.DisplayLabel(),
		Type:        field.Type,
		Value:       d.Value,
		Format:      d.Format,
		Required:    field.Required,
		MultiValued: d.MultiValued,
	}

	var problems []DefinitionProblem
	report := func(format string, args ...any) {
		problems = append(problems, DefinitionProblem{Tag: tag, Reason: fmt.Sprintf(format, args...)})
	}

	switch attrs := field.Attributes.(type) {
	case nil:
		if d.HasOptions {
			report("options must not be empty")
		}
	case model.TextAttributes:
		if d.Value != registry.ValueString || d.HasOptions || d.Format != "" {
			report("text attributes do not apply to %s fields", field.Type)
			break
		}
		if attrs.MinLength != nil && *attrs.MinLength < 0 {
			report("min_length must not be negative")
		}
		if attrs.MaxLength != nil && *attrs.MaxLength < 0 {
			report("max_length must not be negative")
		}
		if attrs.MinLength != nil && attrs.MaxLength != nil && *attrs.MinLength > *attrs.MaxLength {
			report("min_length %d exceeds max_length %d", *attrs.MinLength, *attrs.MaxLength)
		}
		rule.MinLength = cloneInt(attrs.MinLength)
		rule.MaxLength = cloneInt(attrs.MaxLength)
	case model.ChoiceAttributes:
		if !d.HasOptions {
			report("options do not apply to %s fields", field.Type)
			break
		}
		rule.Options, problems = checkOptions(tag, attrs.Options, problems)
	case model.NumberAttributes:
		if d.Value != registry.ValueNumber {
			report("number attributes do not apply to %s fields", field.Type)
			break
		}
		if attrs.MinValue != nil && attrs.MaxValue != nil && *attrs.MinValue > *attrs.MaxValue {
			report("min_value %s exceeds max_value %s", formatNumber(*attrs.MinValue), formatNumber(*attrs.MaxValue))
		}
		if attrs.Precision != nil && *attrs.Precision < 0 {
			report("precision must not be negative")
		}
		rule.MinValue = cloneFloat(attrs.MinValue)
		rule.MaxValue = cloneFloat(attrs.MaxValue)
	case model.DateAttributes:
		if d.Value != registry.ValueDate {
			report("date attributes do not apply to %s fields", field.Type)
			break
		}
		minDate, err := parseBound(attrs.MinDate)
		if err != nil {
			report("min_date %q is not a valid date", attrs.MinDate)
		}
		maxDate, err := parseBound(attrs.MaxDate)
		if err != nil {
			report("max_date %q is not a valid date", attrs.MaxDate)
		}
		if minDate != nil && maxDate != nil && minDate.After(*maxDate) {
			report("min_date %s is after max_date %s", registry.FormatDate(*minDate), registry.FormatDate(*maxDate))
		}
		rule.MinDate = minDate
		rule.MaxDate = maxDate
	case model.FormatAttributes:
		if d.Format == "" {
			report("format attributes do not apply to %s fields", field.Type)
		}
	default:
		report("unexpected attributes %T for %s field", attrs, field.Type)
	}

	if d.HasOptions && len(rule.Options) == 0 && len(problems) == 0 {
		report("options must not be empty")
	}
	return rule, problems
}

func checkOptions(tag string, options []string, problems []DefinitionProblem) ([]string, []DefinitionProblem) {
	if len(options) == 0 {
		return nil, append(problems, DefinitionProblem{Tag: tag, Reason: "options must not be empty"})
	}
	seen := make(map[string]struct{}, len(options))
	out := make([]string, 0, len(options))
	for i, option := range options {
		if strings.TrimSpace(option) == "" {
			problems = append(problems, DefinitionProblem{Tag: tag, Reason: fmt.Sprintf("option %d is blank", i)})
			continue
		}
		if _, dup := seen[option]; dup {
			problems = append(problems, DefinitionProblem{Tag: tag, Reason: fmt.Sprintf("duplicate option %q", option)})
			continue
		}
		seen[option] = struct{}{}
		out = append(out, option)
	}
	return out, problems
}

func parseBound(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := registry.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
