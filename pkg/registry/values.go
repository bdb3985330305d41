package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date wire format (no time component).
const DateLayout = "2006-01-02"

// ErrInvalidValue is returned when a raw value cannot be converted into the
// native type of a field.
var ErrInvalidValue = errors.New("registry: invalid value")

// ValueError describes a failed conversion.
type ValueError struct {
	Kind  ValueKind
	Value any
	Err   error
}

func (e *ValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry: cannot use %v as %s: %v", e.Value, e.Kind, e.Err)
	}
	return fmt.Sprintf("registry: cannot use %v (%T) as %s", e.Value, e.Value, e.Kind)
}

// Unwrap exposes ErrInvalidValue to errors.Is.
func (e *ValueError) Unwrap() error {
	return ErrInvalidValue
}

// Coerce converts a loosely typed raw value (terminal input, decoded JSON)
// into the native representation of the descriptor. Values that mean "not
// provided" (nil, blank strings, zero times, empty lists) come back as nil.
func Coerce(d Descriptor, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch d.Value {
	case ValueString:
		return coerceString(raw)
	case ValueNumber:
		return coerceNumber(raw)
	case ValueDate:
		return coerceDate(raw)
	case ValueStringArray:
		return coerceStrings(raw)
	default:
		return nil, &ValueError{Kind: d.Value, Value: raw}
	}
}

// IsEmpty reports whether a native value counts as "not provided". Strings
// are empty when blank after trimming and lists when they have no elements.
// Zero is a valid number.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case time.Time:
		return v.IsZero()
	case *time.Time:
		return v == nil || v.IsZero()
	case *float64:
		return v == nil
	default:
		return false
	}
}

// FormatDate renders the calendar date of t, dropping the time of day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC. Timestamps keep the date as seen in their own
// offset.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("registry: parse date %q: %w", raw, err)
	}
	return CalendarDate(t), nil
}

// CalendarDate truncates t to its calendar date at midnight UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func coerceString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return v, nil
	case *string:
		if v == nil {
			return nil, nil
		}
		return coerceString(*v)
	default:
		return nil, &ValueError{Kind: ValueString, Value: raw}
	}
}

func coerceNumber(raw any) (any, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case *float64:
		if v == nil {
			return nil, nil
		}
		f = *v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, &ValueError{Kind: ValueNumber, Value: raw, Err: err}
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, &ValueError{Kind: ValueNumber, Value: raw, Err: err}
		}
		f = parsed
	default:
		return nil, &ValueError{Kind: ValueNumber, Value: raw}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &ValueError{Kind: ValueNumber, Value: raw}
	}
	return f, nil
}

func coerceDate(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return CalendarDate(v), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return coerceDate(*v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		t, err := ParseDate(v)
		if err != nil {
			return nil, &ValueError{Kind: ValueDate, Value: raw, Err: err}
		}
		return t, nil
	default:
		return nil, &ValueError{Kind: ValueDate, Value: raw}
	}
}

func coerceStrings(raw any) (any, error) {
	var out []string
	switch v := raw.(type) {
	case []string:
		out = append(out, v...)
	case []any:
		out = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ValueError{Kind: ValueStringArray, Value: raw}
			}
			out = append(out, s)
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		out = []string{v}
	default:
		return nil, &ValueError{Kind: ValueStringArray, Value: raw}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
