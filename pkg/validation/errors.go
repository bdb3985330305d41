package validation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFormDefinition is returned by Build when the definition cannot
	// produce a contract. The form cannot be displayed.
	ErrInvalidFormDefinition = errors.New("validation: invalid form definition")
	// ErrValidationFailure is returned by Contract.Validate when at least one
	// field violates its rule.
	ErrValidationFailure = errors.New("validation: validation failed")
)

// DefinitionProblem names one defect in a form definition.
type DefinitionProblem struct {
	Tag    string
	Reason string
}

func (p DefinitionProblem) String() string {
	if p.Tag == "" {
		return p.Reason
	}
	return fmt.Sprintf("%s: %s", p.Tag, p.Reason)
}

// DefinitionError lists every defect found while building a contract.
type DefinitionError struct {
	Problems []DefinitionProblem
}

func (e *DefinitionError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, problem := range e.Problems {
		parts = append(parts, problem.String())
	}
	return fmt.Sprintf("validation: invalid form definition: %s", strings.Join(parts, "; "))
}

// Unwrap exposes ErrInvalidFormDefinition to errors.Is.
func (e *DefinitionError) Unwrap() error {
	return ErrInvalidFormDefinition
}

// FieldError is a rule violation for one field.
type FieldError struct {
	Tag     string
	Message string
}

// ValidationError carries the field errors of a failed Validate call in
// declaration order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field.Tag, field.Message))
	}
	return fmt.Sprintf("validation: %d field(s) failed: %s", len(e.Fields), strings.Join(parts, "; "))
}

// Unwrap exposes ErrValidationFailure to errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailure
}

// Map returns the field errors keyed by tag.
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, field := range e.Fields {
		out[field.Tag] = field.Message
	}
	return out
}

// Message returns the error for tag, if any.
func (e *ValidationError) Message(tag string) (string, bool) {
	for _, field := range e.Fields {
		if field.Tag == tag {
			return field.Message, true
		}
	}
	return "", false
}
