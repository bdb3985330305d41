package validation

import (
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/registry"
)

// Rule is the validation rule derived from one field. It depends only on the
// field's own type and constraints.
type Rule struct {
	Tag      string
	Label    string
	Type     model.FieldType
	Value    registry.ValueKind
	Format   string
	Required bool

	MinLength *int
	MaxLength *int

	MinValue *float64
	MaxValue *float64

	MinDate *time.Time
	MaxDate *time.Time

	Options     []string
	MultiValued bool
}

// violation is a message id plus its template data.
type violation struct {
	key  string
	data messages.Data
}

// check runs the rule against a raw value. A nil result means the value is
// acceptable.
func (r Rule) check(raw any) *violation {
	value, err := registry.Coerce(r.descriptor(), raw)
	if err != nil {
		return r.invalid()
	}
	if registry.IsEmpty(value) {
		if r.Required {
			return r.violation(messages.FieldRequired, nil)
		}
		return nil
	}

	switch v := value.(type) {
	case string:
		return r.checkString(v)
	case float64:
		return r.checkNumber(v)
	case time.Time:
		return r.checkDate(v)
	case []string:
		return r.checkSelections(v)
	default:
		return r.invalid()
	}
}

func (r Rule) checkString(v string) *violation {
	length := utf8.RuneCountInString(v)
	if r.MinLength != nil && length < *r.MinLength {
		return r.violation(messages.FieldTooShort, messages.Data{"Min": *r.MinLength})
	}
	if r.MaxLength != nil && length > *r.MaxLength {
		return r.violation(messages.FieldTooLong, messages.Data{"Max": *r.MaxLength})
	}

	switch r.Format {
	case registry.FormatEmail:
		if !isEmail(v) {
			return r.violation(messages.EmailInvalid, nil)
		}
	case registry.FormatURL:
		if !isURL(v) {
			return r.violation(messages.URLInvalid, nil)
		}
	}

	if len(r.Options) > 0 && !contains(r.Options, v) {
		return r.violation(messages.OptionInvalid, nil)
	}
	return nil
}

func (r Rule) checkNumber(v float64) *violation {
	if r.MinValue != nil && v < *r.MinValue {
		return r.violation(messages.NumberTooSmall, messages.Data{"Min": formatNumber(*r.MinValue)})
	}
	if r.MaxValue != nil && v > *r.MaxValue {
		return r.violation(messages.NumberTooLarge, messages.Data{"Max": formatNumber(*r.MaxValue)})
	}
	return nil
}

func (r Rule) checkDate(v time.Time) *violation {
	if r.MinDate != nil && v.Before(*r.MinDate) {
		return r.violation(messages.DateTooEarly, messages.Data{"Min": registry.FormatDate(*r.MinDate)})
	}
	if r.MaxDate != nil && v.After(*r.MaxDate) {
		return r.violation(messages.DateTooLate, messages.Data{"Max": registry.FormatDate(*r.MaxDate)})
	}
	return nil
}

func (r Rule) checkSelections(v []string) *violation {
	for _, selected := range v {
		if !contains(r.Options, selected) {
			return r.violation(messages.OptionsInvalid, nil)
		}
	}
	return nil
}

func (r Rule) invalid() *violation {
	switch r.Value {
	case registry.ValueNumber:
		return r.violation(messages.NumberInvalid, nil)
	case registry.ValueDate:
		return r.violation(messages.DateInvalid, nil)
	default:
		return r.violation(messages.ValueInvalid, nil)
	}
}

func (r Rule) violation(key string, data messages.Data) *violation {
	out := messages.Data{"Label": r.Label, "Tag": r.Tag}
	for k, v := range data {
		out[k] = v
	}
	return &violation{key: key, data: out}
}

func (r Rule) descriptor() registry.Descriptor {
	return registry.Descriptor{
		Type:        r.Type,
		HasOptions:  len(r.Options) > 0,
		MultiValued: r.MultiValued,
		Value:       r.Value,
		Format:      r.Format,
	}
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// isEmail accepts a bare addr-spec with a dotted domain. Display names and
// angle brackets are rejected.
func isEmail(v string) bool {
	trimmed := strings.TrimSpace(v)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(trimmed, '@')
	domain := trimmed[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// isURL accepts absolute http and https URLs with a host.
func isURL(v string) bool {
	trimmed := strings.TrimSpace(v)
	if strings.ContainsAny(trimmed, " \t\n") {
		return false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
