package model

import "strings"

// Decorator adjusts a form definition after it has been fetched and before a
// validation contract is built from it.
type Decorator interface {
	Decorate(*FormDefinition) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormDefinition) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormDefinition) error {
	return fn(form)
}

// TrimDecorator strips surrounding whitespace from tags, labels, help text and
// option values. Options that collapse onto an existing value are left in
// place so the contract builder can report them.
var TrimDecorator = DecoratorFunc(func(form *FormDefinition) error {
	if form == nil {
		return nil
	}
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	for i := range form.Fields {
		field := &form.Fields[i]
		field.Tag = strings.TrimSpace(field.Tag)
		field.Label = strings.TrimSpace(field.Label)
		field.HelpText = strings.TrimSpace(field.HelpText)
		if choice, ok := field.Choice(); ok {
			options := make([]string, len(choice.Options))
			for j, option := range choice.Options {
				options[j] = strings.TrimSpace(option)
			}
			field.Attributes = ChoiceAttributes{Options: options}
		}
	}
	return nil
})

// ApplyDecorators runs decorators in order, stopping at the first error.
func ApplyDecorators(form *FormDefinition, decorators ...Decorator) error {
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(form); err != nil {
			return err
		}
	}
	return nil
}
