// Package engine ties the form pipeline together for one view of a form: it
// fetches the definition, builds the validation contract and the render view,
// keeps the user's values and runs submit attempts against the form service.
//
// Everything except Source and Submitter is pure and synchronous. A Session
// is safe for concurrent use; a submit attempt works on a snapshot of the
// values taken when it starts.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/render"
	"github.com/goliatone/go-formwise/pkg/submission"
	"github.com/goliatone/go-formwise/pkg/validation"
	"github.com/goliatone/go-formwise/pkg/widgets"
)

// Source fetches form definitions by id.
type Source interface {
	GetForm(ctx context.Context, formID string) (model.FormDefinition, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, formID string) (model.FormDefinition, error)

// GetForm implements Source.
func (f SourceFunc) GetForm(ctx context.Context, formID string) (model.FormDefinition, error) {
	return f(ctx, formID)
}

// Submitter sends a payload to the form service. Failures should be returned
// as *submission.ServerError when the service answered.
type Submitter interface {
	Submit(ctx context.Context, formID string, payload submission.Payload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, formID string, payload submission.Payload) error

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, formID string, payload submission.Payload) error {
	return f(ctx, formID, payload)
}

// Option customises the engine.
type Option func(*Engine)

// WithSource sets where Open fetches definitions from.
func WithSource(source Source) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithSubmitter sets the submit operation used by sessions.
func WithSubmitter(submitter Submitter) Option {
	return func(e *Engine) {
		e.submitter = submitter
	}
}

// WithLogger sets the logger shared by the pipeline stages.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTranslator localises rule messages, placeholders and notices.
func WithTranslator(t messages.Translator, locale string) Option {
	return func(e *Engine) {
		e.translator = t
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			e.locale = trimmed
		}
	}
}

// WithWidgets replaces the widget registry used by the render mapping.
func WithWidgets(reg *widgets.Registry) Option {
	return func(e *Engine) {
		e.widgets = reg
	}
}

// WithDecorators registers decorators applied to every definition before the
// contract is built.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(e *Engine) {
		e.decorators = append(e.decorators, decorators...)
	}
}

// Engine opens sessions. It holds no per-form state.
type Engine struct {
	source     Source
	submitter  Submitter
	logger     *zap.Logger
	translator messages.Translator
	locale     string
	widgets    *widgets.Registry
	decorators []model.Decorator
}

// New constructs an Engine. Definitions are trimmed by default.
func New(options ...Option) *Engine {
	e := &Engine{
		logger:     zap.NewNop(),
		locale:     "en",
		decorators: []model.Decorator{model.TrimDecorator},
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Open fetches the definition for formID and prepares a session for it.
func (e *Engine) Open(ctx context.Context, formID string) (*Session, error) {
	if e.source == nil {
		return nil, ErrNoSource
	}
	formID = strings.TrimSpace(formID)
	if formID == "" {
		return nil, errors.New("engine: form id is required")
	}

	form, err := e.source.GetForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch form %q: %w", formID, err)
	}
	return e.Prepare(form)
}

// Prepare builds a session from a definition already in hand.
func (e *Engine) Prepare(form model.FormDefinition) (*Session, error) {
	state, err := e.build(form)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("form session opened",
		zap.String("form_id", state.form.ID),
		zap.Bool("accepting", state.form.IsActive),
		zap.Int("fields", len(state.form.Fields)),
	)
	return newSession(e, state), nil
}

// state is everything derived from one definition.
type state struct {
	form     model.FormDefinition
	contract *validation.Contract
	view     render.View
}

func (e *Engine) build(form model.FormDefinition) (state, error) {
	form = form.Clone()
	if err := model.ApplyDecorators(&form, e.decorators...); err != nil {
		return state{}, fmt.Errorf("engine: decorate form %q: %w", form.ID, err)
	}

	contract, err := validation.Build(form,
		validation.WithLogger(e.logger),
		validation.WithTranslator(e.translator, e.locale),
	)
	if err != nil {
		return state{}, fmt.Errorf("engine: form %q cannot be displayed: %w", form.ID, err)
	}

	mapOpts := []render.MapOption{
		render.WithTranslator(e.translator, e.locale),
		render.WithLogger(e.logger),
	}
	if e.widgets != nil {
		mapOpts = append(mapOpts, render.WithWidgets(e.widgets))
	}

	return state{
		form:     form,
		contract: contract,
		view:     render.MapForm(form, mapOpts...),
	}, nil
}
