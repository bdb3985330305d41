package editor_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwise/pkg/editor"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/testsupport"
	"github.com/goliatone/go-formwise/pkg/validation"
)

func TestApplyAddsField(t *testing.T) {
	form := testsupport.SampleForm()
	patch := []byte(`[
		{"op": "replace", "path": "/title", "value": "Signup 2024"},
		{"op": "add", "path": "/fields/-", "value": {
			"type": "select", "tag": "plan", "label": "Plan", "required": true, "options": ["free", "pro"]
		}}
	]`)

	edited, err := editor.Apply(form, patch)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if edited.Title != "Signup 2024" {
		t.Fatalf("unexpected title %q", edited.Title)
	}
	if diff := cmp.Diff([]string{"name", "age", "plan"}, edited.Tags()); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"free", "pro"}, edited.Fields[2].Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if len(form.Fields) != 2 {
		t.Fatalf("input form was modified")
	}
}

func TestApplyRejectsUndisplayableResult(t *testing.T) {
	form := testsupport.SampleForm()
	patch := []byte(`[{"op": "replace", "path": "/fields/1/tag", "value": "name"}]`)

	_, err := editor.Apply(form, patch)
	if !errors.Is(err, validation.ErrInvalidFormDefinition) {
		t.Fatalf("expected ErrInvalidFormDefinition, got %v", err)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		opts  []editor.Option
		want  error
	}{
		{
			name:  "malformed document",
			patch: `{"op": "add"}`,
			want:  editor.ErrInvalidPatch,
		},
		{
			name:  "missing path",
			patch: `[{"op": "replace", "path": "/fields/9/label", "value": "x"}]`,
			want:  editor.ErrInvalidPatch,
		},
		{
			name:  "id is read-only",
			patch: `[{"op": "replace", "path": "/id", "value": "other"}]`,
			want:  editor.ErrPathNotAllowed,
		},
		{
			name:  "outside allowed paths",
			patch: `[{"op": "replace", "path": "/title", "value": "x"}]`,
			opts:  []editor.Option{editor.WithAllowedPaths("/fields/*/label")},
			want:  editor.ErrPathNotAllowed,
		},
		{
			name:  "over field limit",
			patch: `[{"op": "add", "path": "/fields/-", "value": {"type": "email", "tag": "email", "label": "Email"}}]`,
			opts:  []editor.Option{editor.WithLimits(model.ServiceConfig{MaxFields: 2})},
			want:  editor.ErrLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := editor.Apply(testsupport.SampleForm(), []byte(tt.patch), tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyAllowsWildcardPaths(t *testing.T) {
	patch := []byte(`[{"op": "replace", "path": "/fields/1/label", "value": "Your age"}]`)

	edited, err := editor.Apply(testsupport.SampleForm(), patch, editor.WithAllowedPaths("/fields/*/label"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if edited.Fields[1].Label != "Your age" {
		t.Fatalf("unexpected label %q", edited.Fields[1].Label)
	}
}

func TestApplyLenient(t *testing.T) {
	patch := []byte(`[
		{"op": "replace", "path": "/description", "value": "Updated"},
		{"op": "remove", "path": "/fields/5"}
	]`)

	form := testsupport.SampleForm()
	form.Description = ""
	edited, err := editor.Apply(form, patch, editor.WithLenient())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if edited.Description != "Updated" || len(edited.Fields) != 2 {
		t.Fatalf("unexpected result %+v", edited)
	}
}

func TestApplyFalsyValues(t *testing.T) {
	patch := []byte(`[{"op": "replace", "path": "/fields/0/required", "value": false}]`)

	edited, err := editor.Apply(testsupport.SampleForm(), patch)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if edited.Fields[0].Required {
		t.Fatalf("expected required to be cleared")
	}
}

func TestApplyOperationsEmpty(t *testing.T) {
	form := testsupport.SampleForm()
	edited, err := editor.ApplyOperations(form, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff(form.Tags(), edited.Tags()); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}
