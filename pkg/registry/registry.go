// Package registry enumerates the supported field kinds and the shape of the
// values each one carries. It is the single place that needs to change when a
// field type is added: the validation builder, the renderer mapping and the
// submission normalizer all consult Describe instead of switching on raw type
// strings.
package registry

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formwise/pkg/model"
)

// ErrUnsupportedFieldType is returned for field types the registry does not
// know. Callers treat it as non-fatal and skip the field.
var ErrUnsupportedFieldType = errors.New("registry: unsupported field type")

// UnsupportedFieldTypeError carries the offending type.
type UnsupportedFieldTypeError struct {
	Type model.FieldType
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("registry: unsupported field type %q", string(e.Type))
}

// Unwrap exposes ErrUnsupportedFieldType to errors.Is.
func (e *UnsupportedFieldTypeError) Unwrap() error {
	return ErrUnsupportedFieldType
}

// ValueKind is the native Go representation of a field value.
type ValueKind string

const (
	// ValueString values are Go strings.
	ValueString ValueKind = "string"
	// ValueNumber values are float64.
	ValueNumber ValueKind = "number"
	// ValueDate values are time.Time; only the calendar date is significant.
	ValueDate ValueKind = "date"
	// ValueStringArray values are []string in selection order.
	ValueStringArray ValueKind = "string_array"
)

// WireFormat names the conversion applied when a value is placed in a
// submission payload.
type WireFormat string

const (
	WirePassthrough  WireFormat = "passthrough"
	WireCalendarDate WireFormat = "calendar_date"
	WireStringArray  WireFormat = "string_array"
)

// Format constraints for string fields.
const (
	FormatEmail = "email"
	FormatURL   = "url"
)

// Descriptor describes the value shape of one field type.
type Descriptor struct {
	Type        model.FieldType
	HasOptions  bool
	MultiValued bool
	Value       ValueKind
	Wire        WireFormat
	Format      string
	// Multiline is set for free text that spans lines.
	Multiline bool
}

// Describe returns the descriptor for a field type.
func Describe(fieldType model.FieldType) (Descriptor, error) {
	d := Descriptor{Type: fieldType, Value: ValueString, Wire: WirePassthrough}

	switch fieldType {
	case model.FieldTypeText:
	case model.FieldTypeParagraph:
		d.Multiline = true
	case model.FieldTypeSelect, model.FieldTypeDropdown:
		d.HasOptions = true
	case model.FieldTypeMultiSelect:
		d.HasOptions = true
		d.MultiValued = true
		d.Value = ValueStringArray
		d.Wire = WireStringArray
	case model.FieldTypeDate:
		d.Value = ValueDate
		d.Wire = WireCalendarDate
	case model.FieldTypeEmail:
		d.Format = FormatEmail
	case model.FieldTypeURL:
		d.Format = FormatURL
	case model.FieldTypeNumber:
		d.Value = ValueNumber
	default:
		return Descriptor{}, &UnsupportedFieldTypeError{Type: fieldType}
	}
	return d, nil
}

// MustDescribe panics for unknown types. Useful for tables built at init time.
func MustDescribe(fieldType model.FieldType) Descriptor {
	d, err := Describe(fieldType)
	if err != nil {
		panic(err)
	}
	return d
}

// All returns the descriptors of every supported type in declaration order.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(model.FieldTypes))
	for _, fieldType := range model.FieldTypes {
		out = append(out, MustDescribe(fieldType))
	}
	return out
}
