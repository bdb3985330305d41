package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrFormInactive is returned by Collect for views that accept no input.
	ErrFormInactive = errors.New("tui: form is not accepting responses")
)

// ErrTooManyAttempts is returned when an answer keeps failing validation
// past the configured attempt limit.
var ErrTooManyAttempts = errors.New("tui: too many invalid answers")
