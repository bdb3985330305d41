// Package tui collects form answers in the terminal. Prompts go through a
// PromptDriver; the default one is backed by survey.
package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/registry"
	"github.com/goliatone/go-formwise/pkg/render"
	"github.com/goliatone/go-formwise/pkg/submission"
)

// Renderer implements render.Renderer for terminal-driven sessions.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	validator         FieldValidator
	submitTransformer SubmitTransformer
	translator        messages.Translator
	locale            string
	theme             Theme
	maxAttempts       int
	confirmSubmit     bool
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		theme:        Theme{ErrorPrefix: "! "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every input of view and serializes the answers.
func (r *Renderer) Render(ctx context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	values, err := r.Collect(ctx, view, opts)
	if err != nil {
		return nil, err
	}
	if r.submitTransformer != nil {
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(view, values)
}

// Collect prompts for every input of view in order. opts.Values prefill the
// prompts and opts.Errors are shown before the matching prompt. Empty
// answers are left out of the result. Inactive views only print their
// notice and return ErrFormInactive.
func (r *Renderer) Collect(ctx context.Context, view render.View, opts render.RenderOptions) (submission.Values, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !view.Accepting {
		if view.Notice != "" {
			if err := r.info(ctx, r.theme.InfoPrefix+view.Notice); err != nil {
				return nil, err
			}
		}
		return nil, ErrFormInactive
	}

	if err := r.header(ctx, view); err != nil {
		return nil, err
	}
	if notice := strings.TrimSpace(opts.Notice); notice != "" {
		if err := r.info(ctx, r.theme.ErrorPrefix+notice); err != nil {
			return nil, err
		}
	}

	values := make(submission.Values, len(view.Inputs))
	for _, input := range view.Inputs {
		value, err := r.promptInput(ctx, input, opts.Values[input.Tag], opts.FieldError(input.Tag))
		if err != nil {
			return nil, err
		}
		if !registry.IsEmpty(value) {
			values[input.Tag] = value
		}
	}

	if r.confirmSubmit {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: messages.Format(r.translator, r.localeFor(view), messages.ActionSubmit, nil) + "?",
			Default: true,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAborted
		}
	}
	return values, nil
}

func (r *Renderer) header(ctx context.Context, view render.View) error {
	for _, line := range []string{view.Title, render.PlainText(view.Description)} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := r.info(ctx, r.theme.InfoPrefix+line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptInput(ctx context.Context, input render.InputDescriptor, current any, message string) (any, error) {
	for attempt := 1; ; attempt++ {
		if message != "" {
			if err := r.info(ctx, r.theme.ErrorPrefix+message); err != nil {
				return nil, err
			}
		}

		value, err := r.ask(ctx, input, current)
		if err != nil {
			return nil, err
		}
		if r.validator == nil {
			return value, nil
		}

		msg, ok := r.validator.ValidateField(input.Tag, value)
		if ok {
			return value, nil
		}
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return nil, fmt.Errorf("%w: %s: %s", ErrTooManyAttempts, input.Tag, msg)
		}
		message = msg
		current = value
	}
}

func (r *Renderer) ask(ctx context.Context, input render.InputDescriptor, current any) (any, error) {
	label := promptLabel(input)
	help := input.HelpText
	if help == "" {
		help = input.Hint
	}

	switch input.Control {
	case render.ControlTextarea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: formatValue(current), Help: help})

	case render.ControlSingleChoice:
		options := input.Options
		offset := 0
		if !input.Required {
			options = append([]string{blankOption(input)}, options...)
			offset = 1
		}
		defaultIndex := -1
		if s, ok := current.(string); ok {
			if idx := indexOf(input.Options, s); idx >= 0 {
				defaultIndex = idx + offset
			}
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: defaultIndex, Help: help})
		if err != nil {
			return nil, err
		}
		idx -= offset
		if idx < 0 || idx >= len(input.Options) {
			return nil, nil
		}
		return input.Options[idx], nil

	case render.ControlMultiChoice:
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  input.Options,
			Defaults: indicesOf(input.Options, selections(current)),
			Help:     help,
		})
		if err != nil {
			return nil, err
		}
		chosen := pick(input.Options, indices)
		if len(chosen) == 0 {
			return nil, nil
		}
		return chosen, nil
	}

	raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: formatValue(current), Help: help})
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(raw)

	switch input.Control {
	case render.ControlNumber:
		if trimmed == "" {
			return nil, nil
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f, nil
		}
		return raw, nil
	case render.ControlDatePicker:
		if trimmed == "" {
			return nil, nil
		}
		if t, err := registry.ParseDate(trimmed); err == nil {
			return t, nil
		}
		return raw, nil
	default:
		return raw, nil
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, msg)
}

func (r *Renderer) localeFor(view render.View) string {
	if r.locale != "" {
		return r.locale
	}
	return view.Locale
}

func promptLabel(input render.InputDescriptor) string {
	label := input.Label
	if label == "" {
		label = input.Tag
	}
	if input.Required {
		label += " *"
	}
	return label
}

func blankOption(input render.InputDescriptor) string {
	if input.Placeholder != "" {
		return input.Placeholder
	}
	return "-"
}

func selections(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return registry.FormatDate(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func (r *Renderer) serialize(view render.View, values submission.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(view, values)), nil
	default:
		return jsonBytes(values)
	}
}

func flattenForm(values submission.Values) string {
	flattened := url.Values{}
	for tag, value := range values {
		switch v := value.(type) {
		case []string:
			for _, item := range v {
				flattened.Add(tag, item)
			}
		default:
			flattened.Set(tag, formatValue(v))
		}
	}
	return flattened.Encode()
}

func prettyPrint(view render.View, values submission.Values) string {
	var b strings.Builder
	for _, input := range view.Inputs {
		value, ok := values[input.Tag]
		if !ok {
			continue
		}
		label := input.Label
		if label == "" {
			label = input.Tag
		}
		fmt.Fprintf(&b, "%s: %s\n", label, formatValue(value))
	}
	return b.String()
}

func jsonBytes(values submission.Values) ([]byte, error) {
	answers := make(map[string]any, len(values))
	for tag, value := range values {
		if t, ok := value.(time.Time); ok {
			answers[tag] = registry.FormatDate(t)
			continue
		}
		answers[tag] = value
	}
	out, err := sonic.ConfigStd.Marshal(struct {
		Answers map[string]any `json:"answers"`
	}{answers})
	if err != nil {
		return nil, fmt.Errorf("tui: encode answers: %w", err)
	}
	return out, nil
}
