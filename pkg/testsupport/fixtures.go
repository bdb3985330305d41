// Package testsupport holds fixtures shared by the package tests.
package testsupport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwise/pkg/model"
)

// LoadForm reads a form definition fixture, decoding YAML or JSON by
// extension.
func LoadForm(path string) (model.FormDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("testsupport: read form: %w", err)
	}

	var form model.FormDefinition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &form)
	default:
		err = sonic.Unmarshal(data, &form)
	}
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("testsupport: decode form %s: %w", path, err)
	}
	return form, nil
}

// SampleForm returns the in-memory definition used across package tests: a
// required text field and an optional bounded number field.
func SampleForm() model.FormDefinition {
	return model.FormDefinition{
		ID:          "form-123",
		Title:       "Signup",
		Description: "Tell us about yourself",
		IsActive:    true,
		Creator:     model.Creator{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Fields: []model.FieldDefinition{
			{
				Type:       model.FieldTypeText,
				Tag:        "name",
				Required:   true,
				Attributes: model.TextAttributes{MinLength: model.Int(1), MaxLength: model.Int(50)},
			},
			{
				Type:       model.FieldTypeNumber,
				Tag:        "age",
				Attributes: model.NumberAttributes{MinValue: model.Float(0), MaxValue: model.Float(120)},
			},
		},
	}
}

// MustReadGolden returns the content of a golden file.
func MustReadGolden(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
