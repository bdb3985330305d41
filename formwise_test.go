package formwise

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formwise/pkg/renderers/html"
	"github.com/goliatone/go-formwise/pkg/testsupport"
	"github.com/goliatone/go-formwise/pkg/validation"
)

func TestAssetsFSContainsStylesheet(t *testing.T) {
	data, err := fs.ReadFile(AssetsFS(), html.StylesheetName)
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if !strings.Contains(string(data), ".fw-form") {
		t.Fatalf("expected stylesheet to style .fw-form")
	}
	if _, err := fs.ReadFile(EmbeddedTemplates(), "templates/form.tpl"); err != nil {
		t.Fatalf("expected form template to be readable: %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(context.Background(), testsupport.SampleForm(), RenderOptions{Action: "/submit"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `action="/submit"`) {
		t.Fatalf("action missing:\n%s", out)
	}

	broken := testsupport.SampleForm()
	broken.Fields[1].Tag = "name"
	if _, err := RenderHTML(context.Background(), broken, RenderOptions{}); !errors.Is(err, validation.ErrInvalidFormDefinition) {
		t.Fatalf("expected ErrInvalidFormDefinition, got %v", err)
	}
}

func TestReadForm(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "form.yaml")
	body := `id: f1
title: Feedback
is_active: true
fields:
  - type: text
    tag: name
    label: Name
    required: true
  - type: select
    tag: mood
    label: Mood
    options: [good, bad]
`
	if err := os.WriteFile(yamlPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	form, err := ReadForm(yamlPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if form.ID != "f1" || len(form.Fields) != 2 {
		t.Fatalf("unexpected form %+v", form)
	}
	if got := form.Fields[1].Options(); len(got) != 2 || got[0] != "good" {
		t.Fatalf("unexpected options %v", got)
	}

	if _, err := DecodeForm([]byte("{}"), "toml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestOpenSubmitsToService(t *testing.T) {
	var submitted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/forms/form-123":
			_, _ = io.WriteString(w, `{"id":"form-123","title":"Signup","is_active":true,"fields":[{"type":"text","tag":"name","label":"Name","required":true}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/forms/form-123/submit":
			data, _ := io.ReadAll(r.Body)
			submitted = string(data)
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	sess, err := Open(context.Background(), srv.URL, "form-123")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	if err := sess.Set("name", "Ann"); err != nil {
		t.Fatalf("set: %v", err)
	}
	res, err := sess.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	var body struct {
		Answers map[string]any `json:"answers"`
	}
	if err := json.Unmarshal([]byte(submitted), &body); err != nil {
		t.Fatalf("decode body %q: %v", submitted, err)
	}
	if len(body.Answers) != 1 || body.Answers["name"] != "Ann" {
		t.Fatalf("unexpected body %s", submitted)
	}
	if res.Payload.Len() != 1 {
		t.Fatalf("unexpected payload %+v", res.Payload)
	}
}
