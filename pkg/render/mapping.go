package render

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/registry"
	"github.com/goliatone/go-formwise/pkg/widgets"
)

// MapOption customises the mapping of fields onto descriptors.
type MapOption func(*mapConfig)

type mapConfig struct {
	translator messages.Translator
	locale     string
	widgets    *widgets.Registry
	logger     *zap.Logger
}

// WithTranslator resolves placeholders, hints and notices through t.
func WithTranslator(t messages.Translator, locale string) MapOption {
	return func(cfg *mapConfig) {
		cfg.translator = t
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			cfg.locale = trimmed
		}
	}
}

// WithWidgets replaces the widget registry used to pick widget hints.
func WithWidgets(reg *widgets.Registry) MapOption {
	return func(cfg *mapConfig) {
		if reg != nil {
			cfg.widgets = reg
		}
	}
}

// WithLogger logs skipped fields.
func WithLogger(logger *zap.Logger) MapOption {
	return func(cfg *mapConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

var defaultWidgets = widgets.NewRegistry()

func newMapConfig(opts []MapOption) mapConfig {
	cfg := mapConfig{
		locale:  "en",
		widgets: defaultWidgets,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// MapToInput returns the descriptor for field, or nil when the field type is
// not supported.
func MapToInput(field model.FieldDefinition, opts ...MapOption) *InputDescriptor {
	cfg := newMapConfig(opts)
	return cfg.mapField(field)
}

// MapForm projects a whole definition. Inactive forms produce a notice and no
// inputs.
func MapForm(form model.FormDefinition, opts ...MapOption) View {
	cfg := newMapConfig(opts)

	view := View{
		ID:           form.ID,
		Title:        strings.TrimSpace(form.Title),
		Description:  PlainText(form.Description),
		Creator:      form.Creator.DisplayName(),
		CreatorEmail: strings.TrimSpace(form.Creator.Email),
		Accepting:    form.IsActive,
		Locale:       cfg.locale,
	}

	if !form.IsActive {
		view.Notice = cfg.format(messages.FormInactive, nil)
		return view
	}

	view.Inputs = make([]InputDescriptor, 0, len(form.Fields))
	for _, field := range form.Fields {
		input := cfg.mapField(field)
		if input == nil {
			cfg.logger.Warn("skipping field with unsupported type",
				zap.String("form_id", form.ID),
				zap.String("tag", field.Tag),
				zap.String("type", string(field.Type)),
			)
			view.Skipped = append(view.Skipped, field.Tag)
			continue
		}
		view.Inputs = append(view.Inputs, *input)
	}
	return view
}

func (cfg mapConfig) mapField(field model.FieldDefinition) *InputDescriptor {
	d, err := registry.Describe(field.Type)
	if err != nil {
		return nil
	}

	label := field.DisplayLabel()
	input := &InputDescriptor{
		Tag:      field.Tag,
		Label:    label,
		Type:     string(field.Type),
		Required: field.Required,
	}
	if widget, ok := cfg.widgets.Resolve(field); ok {
		input.Widget = widget
	}

	switch {
	case d.HasOptions && d.MultiValued:
		input.Control = ControlMultiChoice
		input.Options = append([]string(nil), field.Options()...)
		input.Hint = cfg.format(messages.HintMulti, nil)
	case d.HasOptions:
		input.Control = ControlSingleChoice
		input.Options = append([]string(nil), field.Options()...)
		if input.Widget == widgets.WidgetDropdown {
			input.Placeholder = cfg.format(messages.PlaceholderSelect, messages.Data{"Label": label})
		}
	case d.Value == registry.ValueDate:
		input.Control = ControlDatePicker
		input.InputType = "date"
		input.Placeholder = cfg.format(messages.PlaceholderDate, nil)
		if attrs, ok := field.Date(); ok {
			input.MinDate = strings.TrimSpace(attrs.MinDate)
			input.MaxDate = strings.TrimSpace(attrs.MaxDate)
			input.Hint = cfg.rangeHint(messages.HintDateRange, messages.HintDateMin, messages.HintDateMax, input.MinDate, input.MaxDate)
		}
	case d.Value == registry.ValueNumber:
		input.Control = ControlNumber
		input.InputType = "number"
		input.Placeholder = cfg.format(messages.PlaceholderAnswer, nil)
		if attrs, ok := field.Number(); ok {
			input.Min = cloneFloat(attrs.MinValue)
			input.Max = cloneFloat(attrs.MaxValue)
			input.Step = stepFor(attrs.Precision)
			input.Hint = cfg.rangeHint(messages.HintNumberRange, messages.HintNumberMin, messages.HintNumberMax,
				formatBound(attrs.MinValue), formatBound(attrs.MaxValue))
		}
	default:
		input.Control = ControlText
		input.InputType = "text"
		if d.Multiline {
			input.Control = ControlTextarea
			input.InputType = ""
		}
		if d.Format != "" {
			input.InputType = d.Format
		}
		input.Placeholder = cfg.format(messages.PlaceholderAnswer, nil)
		if attrs, ok := field.Text(); ok {
			input.MinLength = cloneInt(attrs.MinLength)
			input.MaxLength = cloneInt(attrs.MaxLength)
			input.Hint = cfg.rangeHint(messages.HintLengthRange, messages.HintLengthMin, messages.HintLengthMax,
				lengthBound(attrs.MinLength), lengthBound(attrs.MaxLength))
		}
	}

	input.HelpText = PlainText(field.HelpText)
	if input.HelpText == "" {
		input.HelpText = input.Hint
	}
	return input
}

func (cfg mapConfig) rangeHint(rangeKey, minKey, maxKey, min, max string) string {
	switch {
	case min != "" && max != "":
		return cfg.format(rangeKey, messages.Data{"Min": min, "Max": max})
	case min != "":
		return cfg.format(minKey, messages.Data{"Min": min})
	case max != "":
		return cfg.format(maxKey, messages.Data{"Max": max})
	default:
		return ""
	}
}

func (cfg mapConfig) format(key string, data messages.Data) string {
	return messages.Format(cfg.translator, cfg.locale, key, data)
}

// stepFor converts a decimal precision into an input step ("0.01" for 2).
func stepFor(precision *int) string {
	if precision == nil || *precision < 0 {
		return ""
	}
	if *precision == 0 {
		return "1"
	}
	return "0." + strings.Repeat("0", *precision-1) + "1"
}

// lengthBound ignores lower bounds of zero, which constrain nothing.
func lengthBound(v *int) string {
	if v == nil || *v <= 0 {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
