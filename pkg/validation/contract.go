package validation

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formwise/pkg/messages"
)

// Contract holds the rules of one form definition plus the per-field error
// slots of the current session. Rules never change after Build; a changed
// definition needs a new contract. Error slots are safe for concurrent use.
type Contract struct {
	rules   []Rule
	index   map[string]int
	skipped []string

	translator messages.Translator
	locale     string
	logger     *zap.Logger

	mu     sync.RWMutex
	errors map[string]string
}

func newContract(rules []Rule, skipped []string, cfg options) *Contract {
	index := make(map[string]int, len(rules))
	for i, rule := range rules {
		index[rule.Tag] = i
	}
	return &Contract{
		rules:      rules,
		index:      index,
		skipped:    skipped,
		translator: cfg.translator,
		locale:     cfg.locale,
		logger:     cfg.logger,
		errors:     make(map[string]string),
	}
}

// Rules returns the rules in declaration order.
func (c *Contract) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Rule looks a rule up by tag.
func (c *Contract) Rule(tag string) (Rule, bool) {
	i, ok := c.index[tag]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Tags lists the validated tags in declaration order.
func (c *Contract) Tags() []string {
	out := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		out = append(out, rule.Tag)
	}
	return out
}

// Skipped lists the tags of fields whose type was not recognised.
func (c *Contract) Skipped() []string {
	return append([]string(nil), c.skipped...)
}

// Has reports whether the contract has a rule for tag.
func (c *Contract) Has(tag string) bool {
	_, ok := c.index[tag]
	return ok
}

// Locale returns the locale used for messages.
func (c *Contract) Locale() string {
	return c.locale
}

// Validate checks every rule against values, replacing all error slots with
// the outcome. Values for unknown tags are ignored. It returns a
// *ValidationError when any field fails.
func (c *Contract) Validate(values map[string]any) error {
	var failures []FieldError
	next := make(map[string]string)

	for _, rule := range c.rules {
		if v := rule.check(values[rule.Tag]); v != nil {
			msg := c.message(v)
			next[rule.Tag] = msg
			failures = append(failures, FieldError{Tag: rule.Tag, Message: msg})
		}
	}

	c.mu.Lock()
	c.errors = next
	c.mu.Unlock()

	if len(failures) == 0 {
		return nil
	}
	c.logger.Debug("form values failed validation", zap.Int("failures", len(failures)))
	return &ValidationError{Fields: failures}
}

// ValidateField checks a single value and updates that field's slot. It
// returns the message and false when the value fails. Unknown tags pass.
func (c *Contract) ValidateField(tag string, value any) (string, bool) {
	rule, ok := c.Rule(tag)
	if !ok {
		return "", true
	}
	v := rule.check(value)
	if v == nil {
		c.ClearError(tag)
		return "", true
	}
	msg := c.message(v)
	c.SetError(tag, msg)
	return msg, false
}

// SetError stores message in the slot for tag. Tags without a rule are
// ignored and reported as false.
func (c *Contract) SetError(tag, message string) bool {
	if !c.Has(tag) {
		return false
	}
	message = strings.TrimSpace(message)
	c.mu.Lock()
	defer c.mu.Unlock()
	if message == "" {
		delete(c.errors, tag)
		return true
	}
	c.errors[tag] = message
	return true
}

// ClearError empties the slot for tag.
func (c *Contract) ClearError(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.errors, tag)
}

// ClearErrors empties every slot.
func (c *Contract) ClearErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = make(map[string]string)
}

// Error returns the message in the slot for tag.
func (c *Contract) Error(tag string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msg, ok := c.errors[tag]
	return msg, ok
}

// Errors returns a copy of every non-empty slot.
func (c *Contract) Errors() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.errors))
	for tag, msg := range c.errors {
		out[tag] = msg
	}
	return out
}

// HasErrors reports whether any slot is set.
func (c *Contract) HasErrors() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.errors) > 0
}

func (c *Contract) message(v *violation) string {
	return c.Format(v.key, v.data)
}

// Format resolves a message id with the contract's translator and locale.
func (c *Contract) Format(key string, data messages.Data) string {
	return messages.Format(c.translator, c.locale, key, data)
}
