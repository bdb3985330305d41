// Package html renders form views as HTML fragments using the pongo2
// template engine. Output is escaped by the engine; the default stylesheet
// and template bundle are embedded.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/registry"
	"github.com/goliatone/go-formwise/pkg/render"
	rendertemplate "github.com/goliatone/go-formwise/pkg/render/template"
	"github.com/goliatone/go-formwise/pkg/render/template/pongo"
	"github.com/goliatone/go-formwise/pkg/widgets"
)

const formTemplate = "templates/form.tpl"

// Option customises the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
	translator       messages.Translator
	locale           string
	submitLabel      string
}

// WithTemplatesFS supplies an alternate template bundle. It must contain
// templates/form.tpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme sets the default theme. RenderOptions.Theme overrides it.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithTranslator localises the button and confirmation texts.
func WithTranslator(t messages.Translator, locale string) Option {
	return func(cfg *config) {
		cfg.translator = t
		cfg.locale = locale
	}
}

// WithSubmitLabel replaces the submit button text.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		cfg.submitLabel = strings.TrimSpace(label)
	}
}

// Renderer renders views through a template engine.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	cfg       config
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	engine := cfg.templateRenderer
	if engine == nil {
		e, err := pongo.New(pongo.WithFS(cfg.templateFS), pongo.WithExtension(".tpl"))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template engine: %w", err)
		}
		engine = e
	}
	return &Renderer{templates: engine, cfg: cfg}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render renders view with the values, errors and notice in options.
// Inactive views render their notice and no form element.
func (r *Renderer) Render(ctx context.Context, view render.View, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template engine is nil")
	}

	out, err := r.templates.RenderTemplate(formTemplate, r.templateData(view, options))
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) templateData(view render.View, options render.RenderOptions) map[string]any {
	locale := r.cfg.locale
	if locale == "" {
		locale = view.Locale
	}
	submitLabel := r.cfg.submitLabel
	if submitLabel == "" {
		submitLabel = messages.Format(r.cfg.translator, locale, messages.ActionSubmit, nil)
	}

	notice := strings.TrimSpace(options.Notice)
	if notice == "" {
		notice = view.Notice
	}

	inputs := make([]any, 0, len(view.Inputs))
	for _, input := range view.Inputs {
		inputs = append(inputs, inputData(input, options))
	}

	hidden := make([]any, 0, len(options.Hidden))
	for _, field := range render.CleanHiddenFields(options.Hidden) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	data := map[string]any{
		"form": map[string]any{
			"id":          view.ID,
			"title":       view.Title,
			"description": view.Description,
			"creator":     view.Creator,
			"accepting":   view.Accepting,
		},
		"inputs":            inputs,
		"hidden":            hidden,
		"action":            strings.TrimSpace(options.Action),
		"notice":            notice,
		"submitted":         options.Submitted,
		"submitted_message": messages.Format(r.cfg.translator, locale, messages.SubmitSucceeded, nil),
		"submit_label":      submitLabel,
		"theme":             map[string]any{},
	}

	themeCfg := options.Theme
	if themeCfg == nil {
		themeCfg = r.cfg.theme
	}
	if themeCfg != nil {
		data["theme"] = map[string]any{"name": themeCfg.Theme, "variant": themeCfg.Variant}
		data["css_vars"] = cssVarsStyle(cleanCSSVars(themeCfg.CSSVars))
		if themeCfg.AssetURL != nil {
			data["stylesheet"] = themeCfg.AssetURL(StylesheetAsset)
		}
	}
	return data
}

func inputData(input render.InputDescriptor, options render.RenderOptions) map[string]any {
	id := "fw-" + input.Tag
	value := options.Values[input.Tag]
	errMsg := options.FieldError(input.Tag)

	var describedBy []string
	if input.HelpText != "" {
		describedBy = append(describedBy, id+"-help")
	}
	if errMsg != "" {
		describedBy = append(describedBy, id+"-error")
	}

	data := map[string]any{
		"id":           id,
		"tag":          input.Tag,
		"label":        input.Label,
		"widget":       input.Widget,
		"input_type":   input.InputType,
		"placeholder":  input.Placeholder,
		"help":         input.HelpText,
		"required":     input.Required,
		"error":        errMsg,
		"described_by": strings.Join(describedBy, " "),
		"value":        formatValue(value),
		"minlength":    formatInt(input.MinLength),
		"maxlength":    formatInt(input.MaxLength),
		"min":          formatFloat(input.Min),
		"max":          formatFloat(input.Max),
		"step":         input.Step,
	}
	if input.Control == render.ControlDatePicker {
		data["min"] = input.MinDate
		data["max"] = input.MaxDate
	}

	switch input.Widget {
	case widgets.WidgetRadio:
		data["group"] = "radio"
	case widgets.WidgetCheckboxes:
		data["group"] = "checkbox"
	}
	if input.HasOptions() {
		chosen := selected(value)
		opts := make([]any, 0, len(input.Options))
		for _, option := range input.Options {
			_, checked := chosen[option]
			opts = append(opts, map[string]any{"value": option, "checked": checked})
		}
		data["options"] = opts
	}
	return data
}

func selected(value any) map[string]struct{} {
	out := make(map[string]struct{})
	switch v := value.(type) {
	case string:
		out[v] = struct{}{}
	case []string:
		for _, item := range v {
			out[item] = struct{}{}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out[s] = struct{}{}
			}
		}
	}
	return out
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
	case int:
		return strconv.Itoa(v)
	case []string, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func formatInt(v *int) string {
	if v == nil || *v <= 0 {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func cleanCSSVars(vars map[string]string) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	strip := strings.NewReplacer("<", "", ">", "", "{", "", "}", "", ";", "")
	out := make(map[string]string, len(vars))
	for key, value := range vars {
		key = strip.Replace(strings.TrimSpace(key))
		if !strings.HasPrefix(key, "--") {
			continue
		}
		out[key] = strip.Replace(strings.TrimSpace(value))
	}
	return out
}
