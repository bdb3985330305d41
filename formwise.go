// Package formwise is the top-level entry point: it re-exports the common
// types and wires the engine, client and HTML renderer for the simple
// cases.
package formwise

import (
	"context"

	"github.com/goliatone/go-formwise/pkg/client"
	"github.com/goliatone/go-formwise/pkg/engine"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/render"
	"github.com/goliatone/go-formwise/pkg/renderers/html"
)

// FormDefinition aliases model.FormDefinition.
type FormDefinition = model.FormDefinition

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// NewEngine exposes the engine constructor from the top-level module.
func NewEngine(options ...engine.Option) *engine.Engine {
	return engine.New(options...)
}

// RenderHTML validates form and renders it with the embedded HTML template.
// Definitions that fail validation are returned as errors instead of being
// rendered.
func RenderHTML(ctx context.Context, form FormDefinition, options RenderOptions, htmlOptions ...html.Option) ([]byte, error) {
	sess, err := engine.New().Prepare(form)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	renderer, err := html.New(htmlOptions...)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, sess.View(), options)
}

// Open fetches formID from the service at baseURL and returns a session
// that submits back to the same service.
func Open(ctx context.Context, baseURL, formID string, clientOptions ...client.Option) (*engine.Session, error) {
	c, err := client.New(baseURL, clientOptions...)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.WithSource(c), engine.WithSubmitter(c)).Open(ctx, formID)
}
