package model

import (
	"strings"
	"time"
)

// FieldType is the discriminator of a FieldDefinition.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeParagraph   FieldType = "paragraph"
	FieldTypeSelect      FieldType = "select"
	FieldTypeDropdown    FieldType = "dropdown"
	FieldTypeMultiSelect FieldType = "multi_select"
	FieldTypeDate        FieldType = "date"
	FieldTypeEmail       FieldType = "email"
	FieldTypeNumber      FieldType = "number"
	FieldTypeURL         FieldType = "url"
)

// FieldTypes lists the supported kinds in declaration order.
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeParagraph,
	FieldTypeSelect,
	FieldTypeDropdown,
	FieldTypeMultiSelect,
	FieldTypeDate,
	FieldTypeEmail,
	FieldTypeNumber,
	FieldTypeURL,
}

// Known reports whether the type is one of the supported kinds.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeParagraph,
		FieldTypeSelect, FieldTypeDropdown, FieldTypeMultiSelect,
		FieldTypeDate, FieldTypeEmail, FieldTypeNumber, FieldTypeURL:
		return true
	default:
		return false
	}
}

// FieldDefinition describes one input of a form. Attributes holds the
// type-specific constraints and is never nil after decoding.
type FieldDefinition struct {
	Type       FieldType
	Tag        string
	Label      string
	HelpText   string
	Required   bool
	Attributes Attributes
}

// Attributes is implemented by the type-specific constraint sets only.
type Attributes interface {
	attributes()
}

// TextAttributes constrain text and paragraph fields. Bounds are inclusive
// and counted in characters.
type TextAttributes struct {
	MinLength *int
	MaxLength *int
}

// ChoiceAttributes carry the ordered option list of select, dropdown and
// multi_select fields.
type ChoiceAttributes struct {
	Options []string
}

// DateAttributes bound date fields with optional ISO calendar dates.
type DateAttributes struct {
	MinDate string
	MaxDate string
}

// NumberAttributes bound number fields. Precision is the number of decimal
// places the form service keeps.
type NumberAttributes struct {
	MinValue  *float64
	MaxValue  *float64
	Precision *int
}

// FormatAttributes is used by email and url fields, which only carry a format
// constraint.
type FormatAttributes struct{}

// UnknownAttributes marks a field whose type is not recognised.
type UnknownAttributes struct{}

func (TextAttributes) attributes()    {}
func (ChoiceAttributes) attributes()  {}
func (DateAttributes) attributes()    {}
func (NumberAttributes) attributes()  {}
func (FormatAttributes) attributes()  {}
func (UnknownAttributes) attributes() {}

// Text returns the text constraints when the field is a text or paragraph.
func (f FieldDefinition) Text() (TextAttributes, bool) {
	attrs, ok := f.Attributes.(TextAttributes)
	return attrs, ok
}

// Choice returns the option list for choice fields.
func (f FieldDefinition) Choice() (ChoiceAttributes, bool) {
	attrs, ok := f.Attributes.(ChoiceAttributes)
	return attrs, ok
}

// Date returns the date bounds for date fields.
func (f FieldDefinition) Date() (DateAttributes, bool) {
	attrs, ok := f.Attributes.(DateAttributes)
	return attrs, ok
}

// Number returns the numeric constraints for number fields.
func (f FieldDefinition) Number() (NumberAttributes, bool) {
	attrs, ok := f.Attributes.(NumberAttributes)
	return attrs, ok
}

// Options is a shortcut for the option list of choice fields.
func (f FieldDefinition) Options() []string {
	if attrs, ok := f.Choice(); ok {
		return attrs.Options
	}
	return nil
}

// DisplayLabel falls back to the tag when the label is blank.
func (f FieldDefinition) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Tag
}

// Creator attributes a form to its author.
type Creator struct {
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Email     string `json:"email" yaml:"email"`
}

// DisplayName joins the first and last name.
func (c Creator) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// FormDefinition is the form document returned by the "get form by id"
// operation. Field tags are unique within a definition.
type FormDefinition struct {
	ID          string
	Title       string
	Description string
	IsActive    bool
	Fields      []FieldDefinition
	Creator     Creator
	CreatedAt   *time.Time
}

// Field looks a field up by tag.
func (d FormDefinition) Field(tag string) (FieldDefinition, bool) {
	for _, field := range d.Fields {
		if field.Tag == tag {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// Tags returns the field tags in declaration order.
func (d FormDefinition) Tags() []string {
	tags := make([]string, 0, len(d.Fields))
	for _, field := range d.Fields {
		tags = append(tags, field.Tag)
	}
	return tags
}

// Clone returns a deep copy so callers can hand definitions across sessions
// without sharing option slices or bound pointers.
func (d FormDefinition) Clone() FormDefinition {
	out := d
	if d.CreatedAt != nil {
		created := *d.CreatedAt
		out.CreatedAt = &created
	}
	if d.Fields != nil {
		out.Fields = make([]FieldDefinition, len(d.Fields))
		for i, field := range d.Fields {
			out.Fields[i] = field.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the field.
func (f FieldDefinition) Clone() FieldDefinition {
	out := f
	switch attrs := f.Attributes.(type) {
	case TextAttributes:
		out.Attributes = TextAttributes{
			MinLength: cloneInt(attrs.MinLength),
			MaxLength: cloneInt(attrs.MaxLength),
		}
	case ChoiceAttributes:
		out.Attributes = ChoiceAttributes{Options: append([]string(nil), attrs.Options...)}
	case NumberAttributes:
		out.Attributes = NumberAttributes{
			MinValue:  cloneFloat(attrs.MinValue),
			MaxValue:  cloneFloat(attrs.MaxValue),
			Precision: cloneInt(attrs.Precision),
		}
	}
	return out
}

// FormOverview is a dashboard row for a form owned by the current user.
type FormOverview struct {
	ID            string     `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	IsActive      bool       `json:"is_active" yaml:"is_active"`
	ResponseCount int        `json:"response_count" yaml:"response_count"`
	CreatedAt     *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// FormCreate is the request body for creating a form.
type FormCreate struct {
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
}

// ServiceConfig reports the limits enforced by the form service.
type ServiceConfig struct {
	MaxForms     int `json:"max_forms" yaml:"max_forms"`
	MaxFields    int `json:"max_fields" yaml:"max_fields"`
	MaxResponses int `json:"max_responses" yaml:"max_responses"`
}

// Int and Float build the optional bound pointers used by the attribute
// structs.
func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	return Int(*v)
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}
