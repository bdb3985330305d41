package model

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// fieldWire is the flat representation shared by the JSON and YAML codecs.
type fieldWire struct {
	Type      FieldType `json:"type" yaml:"type"`
	Tag       string    `json:"tag" yaml:"tag"`
	Label     string    `json:"label" yaml:"label"`
	HelpText  *string   `json:"help_text" yaml:"help_text,omitempty"`
	Required  bool      `json:"required" yaml:"required"`
	MinLength *int      `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int      `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Options   []string  `json:"options,omitempty" yaml:"options,omitempty"`
	MinDate   *string   `json:"min_date,omitempty" yaml:"min_date,omitempty"`
	MaxDate   *string   `json:"max_date,omitempty" yaml:"max_date,omitempty"`
	MinValue  *float64  `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue  *float64  `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	Precision *int      `json:"precision,omitempty" yaml:"precision,omitempty"`
}

func (w fieldWire) definition() FieldDefinition {
	field := FieldDefinition{
		Type:     w.Type,
		Tag:      w.Tag,
		Label:    w.Label,
		Required: w.Required,
	}
	if w.HelpText != nil {
		field.HelpText = *w.HelpText
	}

	switch w.Type {
	case FieldTypeText, FieldTypeParagraph:
		field.Attributes = TextAttributes{MinLength: w.MinLength, MaxLength: w.MaxLength}
	case FieldTypeSelect, FieldTypeDropdown, FieldTypeMultiSelect:
		field.Attributes = ChoiceAttributes{Options: w.Options}
	case FieldTypeDate:
		field.Attributes = DateAttributes{MinDate: deref(w.MinDate), MaxDate: deref(w.MaxDate)}
	case FieldTypeNumber:
		field.Attributes = NumberAttributes{MinValue: w.MinValue, MaxValue: w.MaxValue, Precision: w.Precision}
	case FieldTypeEmail, FieldTypeURL:
		field.Attributes = FormatAttributes{}
	default:
		field.Attributes = UnknownAttributes{}
	}
	return field
}

func wireFromField(f FieldDefinition) fieldWire {
	w := fieldWire{
		Type:     f.Type,
		Tag:      f.Tag,
		Label:    f.Label,
		Required: f.Required,
	}
	if f.HelpText != "" {
		help := f.HelpText
		w.HelpText = &help
	}

	switch attrs := f.Attributes.(type) {
	case TextAttributes:
		w.MinLength, w.MaxLength = attrs.MinLength, attrs.MaxLength
	case ChoiceAttributes:
		w.Options = attrs.Options
	case DateAttributes:
		w.MinDate, w.MaxDate = ref(attrs.MinDate), ref(attrs.MaxDate)
	case NumberAttributes:
		w.MinValue, w.MaxValue, w.Precision = attrs.MinValue, attrs.MaxValue, attrs.Precision
	}
	return w
}

// MarshalJSON emits the flat wire shape.
func (f FieldDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireFromField(f))
}

// UnmarshalJSON decodes the flat wire shape, selecting the attribute variant
// from the type tag.
func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	var w fieldWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = w.definition()
	return nil
}

// MarshalYAML emits the flat wire shape.
func (f FieldDefinition) MarshalYAML() (any, error) {
	return wireFromField(f), nil
}

// UnmarshalYAML decodes the flat wire shape.
func (f *FieldDefinition) UnmarshalYAML(node *yaml.Node) error {
	var w fieldWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*f = w.definition()
	return nil
}

type formWire struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Description *string           `json:"description,omitempty" yaml:"description,omitempty"`
	IsActive    *bool             `json:"is_active,omitempty" yaml:"is_active,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
	Creator     *Creator          `json:"creator,omitempty" yaml:"creator,omitempty"`
	CreatedBy   *Creator          `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt   *time.Time        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// A missing is_active is treated as active; the form service defaults new
// forms to accepting responses. The owner view names the author created_by.
func (w formWire) definition() FormDefinition {
	def := FormDefinition{
		ID:          w.ID,
		Title:       w.Title,
		Description: deref(w.Description),
		IsActive:    w.IsActive == nil || *w.IsActive,
		Fields:      w.Fields,
		CreatedAt:   w.CreatedAt,
	}
	switch {
	case w.Creator != nil:
		def.Creator = *w.Creator
	case w.CreatedBy != nil:
		def.Creator = *w.CreatedBy
	}
	return def
}

func wireFromForm(d FormDefinition) formWire {
	active := d.IsActive
	creator := d.Creator
	fields := d.Fields
	if fields == nil {
		fields = []FieldDefinition{}
	}
	return formWire{
		ID:          d.ID,
		Title:       d.Title,
		Description: ref(d.Description),
		IsActive:    &active,
		Fields:      fields,
		Creator:     &creator,
		CreatedAt:   d.CreatedAt,
	}
}

// MarshalJSON emits the form document shape.
func (d FormDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireFromForm(d))
}

// UnmarshalJSON decodes a form document.
func (d *FormDefinition) UnmarshalJSON(data []byte) error {
	var w formWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = w.definition()
	return nil
}

// MarshalYAML emits the form document shape.
func (d FormDefinition) MarshalYAML() (any, error) {
	return wireFromForm(d), nil
}

// UnmarshalYAML decodes a form document, which lets fixtures and local
// definitions be authored in YAML.
func (d *FormDefinition) UnmarshalYAML(node *yaml.Node) error {
	var w formWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*d = w.definition()
	return nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func ref(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
