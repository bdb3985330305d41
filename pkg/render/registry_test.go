package render_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwise/pkg/render"
	"github.com/goliatone/go-formwise/pkg/testsupport"
)

type fakeRenderer struct {
	name string
	err  error
}

func (f fakeRenderer) Name() string        { return f.name }
func (f fakeRenderer) ContentType() string { return "text/" + f.name }

func (f fakeRenderer) Render(_ context.Context, view render.View, _ render.RenderOptions) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.name + ":" + view.ID), nil
}

func TestRegistryRender(t *testing.T) {
	reg := render.NewRegistry(fakeRenderer{name: "html"}, fakeRenderer{name: "Plain"})
	view := render.MapForm(testsupport.SampleForm())

	out, contentType, err := reg.Render(testsupport.Context(), " PLAIN ", view, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "Plain:form-123" || contentType != "text/Plain" {
		t.Fatalf("unexpected output %q (%s)", out, contentType)
	}
	if diff := cmp.Diff([]string{"html", "plain"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := reg.Render(testsupport.Context(), "pdf", view, render.RenderOptions{}); err == nil || !strings.Contains(err.Error(), "have html, plain") {
		t.Fatalf("expected not found error listing renderers, got %v", err)
	}
}

func TestRegistryWrapsRendererErrors(t *testing.T) {
	boom := errors.New("boom")
	reg := render.NewRegistry(fakeRenderer{name: "html", err: boom})
	if _, _, err := reg.Render(testsupport.Context(), "html", render.View{}, render.RenderOptions{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := render.NewRegistry(fakeRenderer{name: "html"})
	if err := reg.Register(fakeRenderer{name: "HTML"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := reg.Register(fakeRenderer{name: " "}); err == nil {
		t.Fatalf("expected missing name error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil renderer error")
	}
}
