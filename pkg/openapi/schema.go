// Package openapi describes the submission contract of a form as OpenAPI 3.
// The exported schema mirrors the checks the validation contract performs,
// so a payload produced by the normalizer always validates against it.
package openapi

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/registry"
	"github.com/goliatone/go-formwise/pkg/render"
	"github.com/goliatone/go-formwise/pkg/submission"
	"github.com/goliatone/go-formwise/pkg/validation"
)

// ErrPayloadMismatch indicates a payload does not satisfy the schema.
var ErrPayloadMismatch = errors.New("openapi: payload does not match schema")

const datePattern = `^\d{4}-\d{2}-\d{2}$`

// SubmissionSchema builds the schema of the answers object of form.
func SubmissionSchema(form model.FormDefinition) (*openapi3.Schema, error) {
	contract, err := validation.Build(form)
	if err != nil {
		return nil, err
	}
	return ContractSchema(form, contract), nil
}

// ContractSchema builds the answers schema from an existing contract. form
// supplies titles and help text.
func ContractSchema(form model.FormDefinition, contract *validation.Contract) *openapi3.Schema {
	schema := openapi3.NewObjectSchema().WithoutAdditionalProperties()
	schema.Title = form.Title

	for _, rule := range contract.Rules() {
		prop := ruleSchema(rule)
		prop.Title = rule.Label
		if field, ok := form.Field(rule.Tag); ok {
			prop.Description = render.PlainText(field.HelpText)
			if attrs, ok := field.Number(); ok && attrs.Precision != nil {
				prop.Extensions = map[string]any{"x-precision": *attrs.Precision}
			}
		}
		schema.WithProperty(rule.Tag, prop)
		if rule.Required {
			schema.Required = append(schema.Required, rule.Tag)
		}
	}
	return schema
}

// EnvelopeSchema wraps an answers schema as {"answers": {...}}.
func EnvelopeSchema(answers *openapi3.Schema) *openapi3.Schema {
	envelope := openapi3.NewObjectSchema().WithoutAdditionalProperties()
	envelope.WithProperty("answers", answers)
	envelope.Required = []string{"answers"}
	return envelope
}

func ruleSchema(rule validation.Rule) *openapi3.Schema {
	switch rule.Value {
	case registry.ValueNumber:
		s := openapi3.NewFloat64Schema()
		if rule.MinValue != nil {
			s.WithMin(*rule.MinValue)
		}
		if rule.MaxValue != nil {
			s.WithMax(*rule.MaxValue)
		}
		return s

	case registry.ValueDate:
		s := openapi3.NewStringSchema().WithFormat("date").WithPattern(datePattern)
		ext := map[string]any{}
		if rule.MinDate != nil {
			ext["x-min-date"] = registry.FormatDate(*rule.MinDate)
		}
		if rule.MaxDate != nil {
			ext["x-max-date"] = registry.FormatDate(*rule.MaxDate)
		}
		if len(ext) > 0 {
			s.Extensions = ext
		}
		return s

	case registry.ValueStringArray:
		items := openapi3.NewStringSchema().WithEnum(enumValues(rule.Options)...)
		return openapi3.NewArraySchema().WithItems(items).WithUniqueItems(true)

	default:
		s := openapi3.NewStringSchema()
		if rule.MinLength != nil && *rule.MinLength > 0 {
			s.WithMinLength(int64(*rule.MinLength))
		}
		if rule.MaxLength != nil {
			s.WithMaxLength(int64(*rule.MaxLength))
		}
		switch rule.Format {
		case registry.FormatEmail:
			s.WithFormat("email")
		case registry.FormatURL:
			s.WithFormat("uri")
		}
		if len(rule.Options) > 0 {
			s.WithEnum(enumValues(rule.Options)...)
		}
		return s
	}
}

func enumValues(options []string) []any {
	out := make([]any, len(options))
	for i, option := range options {
		out[i] = option
	}
	return out
}

// ValidatePayload checks the wire form of payload against an answers schema.
func ValidatePayload(schema *openapi3.Schema, payload submission.Payload) error {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("openapi: encode payload: %w", err)
	}
	var doc any
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("openapi: decode payload: %w", err)
	}
	if err := schema.VisitJSON(doc, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("%w: %w", ErrPayloadMismatch, err)
	}
	return nil
}
