package model_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwise/pkg/model"
)

const sampleForm = `{
  "id": "frm_1",
  "title": "Signup",
  "description": "Join the beta",
  "is_active": true,
  "creator": {"first_name": "Ann", "last_name": "Lee", "email": "ann@example.com"},
  "fields": [
    {"type": "text", "tag": "name", "label": "Name", "help_text": null, "required": true, "min_length": 1, "max_length": 50},
    {"type": "dropdown", "tag": "plan", "label": "Plan", "required": false, "options": ["free", "pro"]},
    {"type": "date", "tag": "start", "label": "Start", "required": false, "min_date": "2024-01-01", "max_date": null},
    {"type": "number", "tag": "age", "label": "Age", "required": false, "min_value": 0, "max_value": 120, "precision": 0},
    {"type": "email", "tag": "email", "label": "Email", "help_text": "Work address", "required": true},
    {"type": "signature", "tag": "sig", "label": "Sign", "required": false}
  ]
}`

func TestFormDefinitionUnmarshalJSON(t *testing.T) {
	var form model.FormDefinition
	if err := json.Unmarshal([]byte(sampleForm), &form); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := model.FormDefinition{
		ID:          "frm_1",
		Title:       "Signup",
		Description: "Join the beta",
		IsActive:    true,
		Creator:     model.Creator{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"},
		Fields: []model.FieldDefinition{
			{Type: model.FieldTypeText, Tag: "name", Label: "Name", Required: true,
				Attributes: model.TextAttributes{MinLength: model.Int(1), MaxLength: model.Int(50)}},
			{Type: model.FieldTypeDropdown, Tag: "plan", Label: "Plan",
				Attributes: model.ChoiceAttributes{Options: []string{"free", "pro"}}},
			{Type: model.FieldTypeDate, Tag: "start", Label: "Start",
				Attributes: model.DateAttributes{MinDate: "2024-01-01"}},
			{Type: model.FieldTypeNumber, Tag: "age", Label: "Age",
				Attributes: model.NumberAttributes{MinValue: model.Float(0), MaxValue: model.Float(120), Precision: model.Int(0)}},
			{Type: model.FieldTypeEmail, Tag: "email", Label: "Email", HelpText: "Work address", Required: true,
				Attributes: model.FormatAttributes{}},
			{Type: "signature", Tag: "sig", Label: "Sign", Attributes: model.UnknownAttributes{}},
		},
	}

	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestFormDefinitionDefaultsAndCreatedBy(t *testing.T) {
	raw := `{"id": "frm_2", "title": "Owner view", "fields": [], "created_by": {"first_name": "Bo", "last_name": "Ng", "email": "bo@example.com"}}`

	var form model.FormDefinition
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !form.IsActive {
		t.Fatalf("expected missing is_active to default to active")
	}
	if got := form.Creator.DisplayName(); got != "Bo Ng" {
		t.Fatalf("creator display name = %q, want %q", got, "Bo Ng")
	}
}

func TestFormDefinitionJSONRoundTrip(t *testing.T) {
	var form model.FormDefinition
	if err := json.Unmarshal([]byte(sampleForm), &form); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, err := json.Marshal(form)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again model.FormDefinition
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	if diff := cmp.Diff(form, again); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFormDefinitionUnmarshalYAML(t *testing.T) {
	raw := `
id: frm_3
title: Feedback
is_active: false
fields:
  - type: multi_select
    tag: topics
    label: Topics
    required: true
    options: [docs, api, billing]
  - type: paragraph
    tag: comment
    label: Comment
    max_length: 500
`
	var form model.FormDefinition
	if err := yaml.Unmarshal([]byte(raw), &form); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if form.IsActive {
		t.Fatalf("expected inactive form")
	}
	if diff := cmp.Diff([]string{"docs", "api", "billing"}, form.Fields[0].Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	text, ok := form.Fields[1].Text()
	if !ok || text.MinLength != nil || text.MaxLength == nil || *text.MaxLength != 500 {
		t.Fatalf("unexpected paragraph attributes: %+v", form.Fields[1].Attributes)
	}
}

func TestCloneDoesNotShareOptions(t *testing.T) {
	form := model.FormDefinition{
		Fields: []model.FieldDefinition{{
			Type: model.FieldTypeSelect, Tag: "color",
			Attributes: model.ChoiceAttributes{Options: []string{"red", "blue"}},
		}},
	}
	clone := form.Clone()
	clone.Fields[0].Options()[0] = "green"

	if got := form.Fields[0].Options()[0]; got != "red" {
		t.Fatalf("original options mutated: %q", got)
	}
}

func TestTrimDecorator(t *testing.T) {
	form := model.FormDefinition{
		Title: "  Survey ",
		Fields: []model.FieldDefinition{{
			Type: model.FieldTypeSelect, Tag: " color ", Label: " Color ",
			Attributes: model.ChoiceAttributes{Options: []string{" red", "blue "}},
		}},
	}
	if err := model.ApplyDecorators(&form, model.TrimDecorator); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if form.Title != "Survey" || form.Fields[0].Tag != "color" || form.Fields[0].Label != "Color" {
		t.Fatalf("unexpected trimmed form: %+v", form)
	}
	if diff := cmp.Diff([]string{"red", "blue"}, form.Fields[0].Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
