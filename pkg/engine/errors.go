package engine

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formwise/pkg/submission"
)

var (
	// ErrNoSource indicates Open was called on an engine without a source.
	ErrNoSource = errors.New("engine: no form source configured")
	// ErrNoSubmitter indicates Submit was called on an engine without a submitter.
	ErrNoSubmitter = errors.New("engine: no submitter configured")
	// ErrFormInactive indicates the form is not accepting responses.
	ErrFormInactive = errors.New("engine: form is not accepting responses")
	// ErrSessionClosed indicates the session was closed.
	ErrSessionClosed = errors.New("engine: session closed")
	// ErrSubmitInFlight indicates another submit attempt has not finished yet.
	ErrSubmitInFlight = errors.New("engine: submit already in flight")
	// ErrResultDiscarded indicates an attempt finished after its session was
	// closed, reloaded or its context cancelled. Nothing was applied.
	ErrResultDiscarded = errors.New("engine: submit result discarded")
	// ErrUnknownField indicates a value was set for a tag the form does not have.
	ErrUnknownField = errors.New("engine: unknown field")
	// ErrSubmissionRejected indicates the service refused the payload.
	ErrSubmissionRejected = errors.New("engine: submission rejected")
	// ErrTransientFailure indicates a network failure, rate limit or server
	// error. The user may retry.
	ErrTransientFailure = errors.New("engine: transient submit failure")
)

// SubmitError describes a failed submit attempt after its outcome was
// applied to the session. errors.Is matches ErrSubmissionRejected or
// ErrTransientFailure, and the service error through Err.
type SubmitError struct {
	AttemptID string
	Outcome   submission.Outcome
	Err       error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind(), e.Err)
}

// Unwrap exposes both the classification sentinel and the cause.
func (e *SubmitError) Unwrap() []error {
	return []error{e.kind(), e.Err}
}

func (e *SubmitError) kind() error {
	if e.Outcome.Retryable {
		return ErrTransientFailure
	}
	return ErrSubmissionRejected
}
