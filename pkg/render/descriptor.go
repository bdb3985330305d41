// Package render maps form definitions onto toolkit-neutral input
// descriptors and defines the Renderer contract implemented by the HTML and
// terminal renderers. Mapping is pure: no I/O and no session state.
package render

// ControlKind is the abstract kind of input control for a field.
type ControlKind string

const (
	ControlText         ControlKind = "text"
	ControlTextarea     ControlKind = "textarea"
	ControlSingleChoice ControlKind = "single_choice"
	ControlMultiChoice  ControlKind = "multi_choice"
	ControlDatePicker   ControlKind = "date_picker"
	ControlNumber       ControlKind = "number"
)

// InputDescriptor describes how one field should be presented.
type InputDescriptor struct {
	Tag   string
	Label string
	// Type is the field type the descriptor was derived from.
	Type      string
	Control   ControlKind
	InputType string
	Widget    string
	Options   []string

	Placeholder string
	// HelpText is the sanitised help text of the field, or Hint when the
	// field has none.
	HelpText string
	Hint     string
	Required bool

	MinLength *int
	MaxLength *int
	Min       *float64
	Max       *float64
	Step      string
	MinDate   string
	MaxDate   string
}

// HasOptions reports whether the control presents a list of options.
func (d InputDescriptor) HasOptions() bool {
	return d.Control == ControlSingleChoice || d.Control == ControlMultiChoice
}

// View is the renderable projection of a whole form.
type View struct {
	ID           string
	Title        string
	Description  string
	Creator      string
	CreatorEmail string
	// Accepting is false for inactive forms. Such views carry a Notice and
	// no inputs.
	Accepting bool
	Notice    string
	Inputs    []InputDescriptor
	// Skipped lists the tags of fields with unsupported types.
	Skipped []string
	Locale  string
}

// Input looks an input up by tag.
func (v View) Input(tag string) (InputDescriptor, bool) {
	for _, input := range v.Inputs {
		if input.Tag == tag {
			return input, true
		}
	}
	return InputDescriptor{}, false
}
