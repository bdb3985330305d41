package widgets

import (
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-formwise/pkg/model"
)

// Built-in widget identifiers.
const (
	WidgetInput      = "input"
	WidgetTextarea   = "textarea"
	WidgetRadio      = "radio"
	WidgetDropdown   = "dropdown"
	WidgetCheckboxes = "checkboxes"
	WidgetDatePicker = "date-picker"
)

// Matcher reports whether a widget can present field.
type Matcher func(field model.FieldDefinition) bool

type rule struct {
	widget   string
	priority int
	match    Matcher
}

// Registry picks the widget for a field. A per-tag override wins; otherwise
// the highest priority matching rule does, with earlier registrations
// winning ties. The zero Registry has no rules.
type Registry struct {
	mu        sync.RWMutex
	rules     []rule
	overrides map[string]string
}

// NewRegistry returns a registry with a rule per built-in field type.
func NewRegistry() *Registry {
	reg := &Registry{}
	for _, b := range builtins {
		reg.Register(b.widget, b.priority, ofType(b.types...))
	}
	return reg
}

var builtins = []struct {
	widget   string
	priority int
	types    []model.FieldType
}{
	{WidgetCheckboxes, 90, []model.FieldType{model.FieldTypeMultiSelect}},
	{WidgetRadio, 80, []model.FieldType{model.FieldTypeSelect}},
	{WidgetDropdown, 70, []model.FieldType{model.FieldTypeDropdown}},
	{WidgetDatePicker, 60, []model.FieldType{model.FieldTypeDate}},
	{WidgetTextarea, 50, []model.FieldType{model.FieldTypeParagraph}},
	{WidgetInput, 0, []model.FieldType{model.FieldTypeText, model.FieldTypeEmail, model.FieldTypeURL, model.FieldTypeNumber}},
}

func ofType(types ...model.FieldType) Matcher {
	return func(field model.FieldDefinition) bool {
		return slices.Contains(types, field.Type)
	}
}

// Register adds a rule. Higher priorities are consulted first. Blank names
// and nil matchers are ignored.
func (r *Registry) Register(widget string, priority int, match Matcher) {
	widget = strings.TrimSpace(widget)
	if widget == "" || match == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Insert after every rule of equal or higher priority so ties keep
	// registration order.
	at := len(r.rules)
	for i, existing := range r.rules {
		if existing.priority < priority {
			at = i
			break
		}
	}
	r.rules = slices.Insert(r.rules, at, rule{widget: widget, priority: priority, match: match})
}

// Override pins the widget for a field tag. An empty widget removes the pin.
func (r *Registry) Override(tag, widget string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if widget = strings.TrimSpace(widget); widget == "" {
		delete(r.overrides, tag)
		return
	}
	if r.overrides == nil {
		r.overrides = make(map[string]string)
	}
	r.overrides[tag] = widget
}

// Resolve returns the widget for field, or false when nothing matches.
func (r *Registry) Resolve(field model.FieldDefinition) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if widget, ok := r.overrides[field.Tag]; ok {
		return widget, true
	}
	for _, candidate := range r.rules {
		if candidate.match(field) {
			return candidate.widget, true
		}
	}
	return "", false
}
