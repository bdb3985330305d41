package submission

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/validation"
)

// ServerError is a failed submit as reported by the form service. Status is
// zero for transport failures, in which case Err holds the cause.
type ServerError struct {
	Status  int
	Detail  map[string]string
	Message string
	Err     error
}

func (e *ServerError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("submission: request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("submission: server responded %d: %s", e.Status, e.Message)
	case len(e.Detail) > 0:
		return fmt.Sprintf("submission: server responded %d with %d field error(s)", e.Status, len(e.Detail))
	default:
		return fmt.Sprintf("submission: server responded %d", e.Status)
	}
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: transport errors, rate
// limiting and server errors.
func (e *ServerError) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// FieldScoped reports whether the error carries per-field detail.
func (e *ServerError) FieldScoped() bool {
	return e.Status == http.StatusBadRequest && len(e.Detail) > 0
}

// Outcome is the result of mapping a failed submit onto a contract.
type Outcome struct {
	// Fields holds the messages applied to error slots.
	Fields map[string]string
	// Ignored lists detail tags the contract does not know.
	Ignored []string
	// Notice is a form-level message, shown as a banner or toast.
	Notice    string
	Retryable bool
	Status    int
}

// FieldScoped reports whether at least one field slot was set.
func (o Outcome) FieldScoped() bool {
	return len(o.Fields) > 0
}

// MapServerError applies err to the contract's error slots. A 400 with a
// detail map sets the slot of every named field the contract knows and
// clears the rest; unknown tags are ignored. Every other failure becomes a
// single Notice and leaves the slots untouched.
func MapServerError(contract *validation.Contract, err error) Outcome {
	if err == nil {
		return Outcome{}
	}

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		serverErr = &ServerError{Err: err}
	}

	outcome := Outcome{
		Status:    serverErr.Status,
		Retryable: serverErr.Retryable(),
	}

	if serverErr.FieldScoped() && contract != nil {
		contract.ClearErrors()

		var formLevel []string
		tags := make([]string, 0, len(serverErr.Detail))
		for tag := range serverErr.Detail {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		for _, tag := range tags {
			message := strings.TrimSpace(serverErr.Detail[tag])
			if message == "" {
				continue
			}
			if isFormLevelKey(tag) {
				formLevel = append(formLevel, message)
				continue
			}
			if !contract.SetError(tag, message) {
				outcome.Ignored = append(outcome.Ignored, tag)
				continue
			}
			if outcome.Fields == nil {
				outcome.Fields = make(map[string]string)
			}
			outcome.Fields[tag] = message
		}

		formLevel = normalizeMessages(formLevel)
		switch {
		case len(formLevel) > 0:
			outcome.Notice = strings.Join(formLevel, " ")
		case len(outcome.Fields) == 0:
			outcome.Notice = noticeFor(contract, serverErr)
		}
		return outcome
	}

	outcome.Notice = noticeFor(contract, serverErr)
	return outcome
}

func noticeFor(contract *validation.Contract, err *ServerError) string {
	format := func(key string) string {
		if contract != nil {
			return contract.Format(key, nil)
		}
		return messages.Format(nil, "", key, nil)
	}

	if err.Status == http.StatusTooManyRequests {
		return format(messages.SubmitRateLimited)
	}
	if err.Status != 0 && err.Status < 500 {
		if msg := strings.TrimSpace(err.Message); msg != "" {
			return msg
		}
	}
	return format(messages.SubmitFailed)
}

// DecodeErrorBody builds a ServerError from a non-2xx response. It
// understands {"detail": {tag: msg}}, {"detail": "msg"}, {"message": "msg"}
// and validation lists of the form {"detail": [{"loc": [...], "msg": "..."}]}.
func DecodeErrorBody(status int, body []byte) *ServerError {
	out := &ServerError{Status: status}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return out
	}

	var envelope struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := sonic.UnmarshalString(trimmed, &envelope); err != nil {
		if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "<") {
			out.Message = trimmed
		}
		return out
	}

	switch detail := envelope.Detail.(type) {
	case string:
		out.Message = strings.TrimSpace(detail)
	case map[string]any:
		out.Detail = make(map[string]string, len(detail))
		for key, value := range detail {
			if msg := messageFrom(value); msg != "" {
				out.Detail[strings.TrimSpace(key)] = msg
			}
		}
	case []any:
		out.Detail = make(map[string]string, len(detail))
		for _, item := range detail {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			msg := messageFrom(entry["msg"])
			if msg == "" {
				msg = messageFrom(entry["message"])
			}
			if msg == "" {
				continue
			}
			tag := tagFromLocation(entry["loc"])
			if existing, ok := out.Detail[tag]; ok {
				msg = existing + " " + msg
			}
			out.Detail[tag] = msg
		}
	}
	if len(out.Detail) == 0 {
		out.Detail = nil
	}

	if out.Message == "" {
		out.Message = strings.TrimSpace(envelope.Message)
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(envelope.Error)
	}
	return out
}

func messageFrom(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(normalizeMessages(parts), " ")
	default:
		return ""
	}
}

// tagFromLocation reduces a validation location such as
// ["body", "answers", "email"] to the field tag. Locations that only name
// wrappers map to the form level.
func tagFromLocation(loc any) string {
	var segments []string
	switch v := loc.(type) {
	case []any:
		for _, item := range v {
			segments = append(segments, strings.TrimSpace(fmt.Sprint(item)))
		}
	case string:
		segments = parsePathSegments(v)
	}

	segments = stripNumericSegments(dropWrapperSegments(segments))
	if len(segments) == 0 {
		return "__all__"
	}
	return segments[0]
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	return strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":    {},
		"request": {},
		"payload": {},
		"data":    {},
		"answers": {},
	}
	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors", "answers":
		return true
	default:
		return false
	}
}
