package pongo_test

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formwise/pkg/render/template/pongo"
	"github.com/goliatone/go-formwise/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func newEngine(t *testing.T) *pongo.Engine {
	t.Helper()
	sub, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := pongo.New(pongo.WithFS(sub))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := testsupport.MustReadGolden(t, filepath.Join("testdata", "hello.golden"))
	if result != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("writer mismatch\nwant: %q\n got: %q", want, written)
	}
}

func TestEngine_EscapesValues(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("escape.tpl", map[string]any{
		"title": "<Signup>",
		"tags":  []string{"a&b", "c"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<h1>&lt;Signup&gt;</h1>[a&amp;b][c]"; got != want {
		t.Fatalf("unexpected output %q, want %q", got, want)
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestEngine_RequiresSource(t *testing.T) {
	if _, err := pongo.New(); !errors.Is(err, pongo.ErrNoTemplates) {
		t.Fatalf("expected ErrNoTemplates, got %v", err)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	reverse := func(in any) (any, error) {
		runes := []rune(in.(string))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	}
	if err := engine.RegisterFilter("formwise_reverse", reverse); err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("formwise_reverse", reverse); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.RenderTemplate("reverse", map[string]any{"word": "abc"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "cba" {
		t.Fatalf("unexpected output %q", got)
	}
}
