package registry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/registry"
)

func TestDescribeCoversEveryFieldType(t *testing.T) {
	tests := []struct {
		fieldType model.FieldType
		options   bool
		multi     bool
		value     registry.ValueKind
		wire      registry.WireFormat
		format    string
	}{
		{model.FieldTypeText, false, false, registry.ValueString, registry.WirePassthrough, ""},
		{model.FieldTypeParagraph, false, false, registry.ValueString, registry.WirePassthrough, ""},
		{model.FieldTypeSelect, true, false, registry.ValueString, registry.WirePassthrough, ""},
		{model.FieldTypeDropdown, true, false, registry.ValueString, registry.WirePassthrough, ""},
		{model.FieldTypeMultiSelect, true, true, registry.ValueStringArray, registry.WireStringArray, ""},
		{model.FieldTypeDate, false, false, registry.ValueDate, registry.WireCalendarDate, ""},
		{model.FieldTypeEmail, false, false, registry.ValueString, registry.WirePassthrough, registry.FormatEmail},
		{model.FieldTypeNumber, false, false, registry.ValueNumber, registry.WirePassthrough, ""},
		{model.FieldTypeURL, false, false, registry.ValueString, registry.WirePassthrough, registry.FormatURL},
	}

	if len(tests) != len(registry.All()) {
		t.Fatalf("table covers %d types, registry has %d", len(tests), len(registry.All()))
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			d, err := registry.Describe(tt.fieldType)
			if err != nil {
				t.Fatalf("describe: %v", err)
			}
			if d.HasOptions != tt.options || d.MultiValued != tt.multi || d.Value != tt.value || d.Wire != tt.wire || d.Format != tt.format {
				t.Fatalf("unexpected descriptor: %+v", d)
			}
		})
	}
}

func TestDescribeUnknownType(t *testing.T) {
	_, err := registry.Describe("signature")
	if !errors.Is(err, registry.ErrUnsupportedFieldType) {
		t.Fatalf("expected ErrUnsupportedFieldType, got %v", err)
	}
	var typed *registry.UnsupportedFieldTypeError
	if !errors.As(err, &typed) || typed.Type != "signature" {
		t.Fatalf("expected typed error carrying the type, got %#v", err)
	}
}

func TestCoerce(t *testing.T) {
	date := registry.MustDescribe(model.FieldTypeDate)
	number := registry.MustDescribe(model.FieldTypeNumber)
	multi := registry.MustDescribe(model.FieldTypeMultiSelect)
	text := registry.MustDescribe(model.FieldTypeText)

	tests := []struct {
		name string
		d    registry.Descriptor
		raw  any
		want any
	}{
		{"blank text is empty", text, "   ", nil},
		{"text kept verbatim", text, " Ann ", " Ann "},
		{"number from string", number, " 42.5 ", 42.5},
		{"number from int", number, 7, float64(7)},
		{"zero is a number", number, 0, float64(0)},
		{"blank number is empty", number, "", nil},
		{"calendar date", date, "2024-03-09", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"timestamp keeps own date", date, "2024-03-09T23:30:00-05:00", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"time drops clock", date, time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC), time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"decoded json list", multi, []any{"a", "b"}, []string{"a", "b"}},
		{"empty list is empty", multi, []string{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Coerce(tt.d, tt.raw)
			if err != nil {
				t.Fatalf("coerce: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("coerce mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerceRejectsMismatchedValues(t *testing.T) {
	cases := []struct {
		name string
		d    registry.Descriptor
		raw  any
	}{
		{"number text", registry.MustDescribe(model.FieldTypeNumber), "forty"},
		{"bad date", registry.MustDescribe(model.FieldTypeDate), "2024-02-31"},
		{"text from number", registry.MustDescribe(model.FieldTypeText), 12},
		{"list of numbers", registry.MustDescribe(model.FieldTypeMultiSelect), []any{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := registry.Coerce(tc.d, tc.raw); !errors.Is(err, registry.ErrInvalidValue) {
				t.Fatalf("expected ErrInvalidValue, got %v", err)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	got := registry.FormatDate(time.Date(2025, 12, 1, 18, 45, 0, 0, time.UTC))
	if got != "2025-12-01" {
		t.Fatalf("FormatDate = %q", got)
	}
}
