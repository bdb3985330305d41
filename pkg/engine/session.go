package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/render"
	"github.com/goliatone/go-formwise/pkg/submission"
	"github.com/goliatone/go-formwise/pkg/validation"
)

// Result describes a successful submit attempt.
type Result struct {
	AttemptID string
	Payload   submission.Payload
}

// Session holds the values and error slots of one view of a form.
type Session struct {
	engine *Engine
	logger *zap.Logger

	mu         sync.Mutex
	state      state
	values     submission.Values
	generation uint64
	inFlight   bool
	submitted  bool
	closed     bool
}

func newSession(e *Engine, st state) *Session {
	return &Session{
		engine: e,
		logger: e.logger.With(zap.String("form_id", st.form.ID)),
		state:  st,
		values: make(submission.Values),
	}
}

// Form returns the decorated definition the session was built from.
func (s *Session) Form() model.FormDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.form.Clone()
}

// View returns the render view of the current definition.
func (s *Session) View() render.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.view
}

// Contract returns the validation contract of the current definition.
func (s *Session) Contract() *validation.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.contract
}

// Accepting reports whether the form takes responses.
func (s *Session) Accepting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.form.IsActive
}

// Submitted reports whether an attempt of this session has succeeded.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Set stores the raw value for tag and clears that field's error slot. A nil
// value removes it.
func (s *Session) Set(tag string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if !s.state.form.IsActive {
		return ErrFormInactive
	}
	if _, ok := s.state.form.Field(tag); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, tag)
	}

	if value == nil {
		delete(s.values, tag)
	} else {
		s.values[tag] = value
	}
	s.state.contract.ClearError(tag)
	return nil
}

// Values returns a copy of the raw values.
func (s *Session) Values() submission.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return submission.Snapshot(s.values)
}

// RenderOptions returns the values and error slots in the shape renderers
// consume.
func (s *Session) RenderOptions() render.RenderOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.RenderOptions{
		Values:    submission.Snapshot(s.values),
		Errors:    s.state.contract.Errors(),
		Submitted: s.submitted,
	}
}

// Submit validates a snapshot of the values, normalizes it and sends it
// through the engine's submitter. Validation failures are returned as
// *validation.ValidationError with the slots already set. Service failures
// are applied to the contract and returned as *SubmitError.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return Result{}, ErrSessionClosed
	case !s.state.form.IsActive:
		s.mu.Unlock()
		return Result{}, ErrFormInactive
	case s.inFlight:
		s.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	case s.engine.submitter == nil:
		s.mu.Unlock()
		return Result{}, ErrNoSubmitter
	}

	attempt := uuid.NewString()
	snapshot := submission.Snapshot(s.values)
	form := s.state.form
	contract := s.state.contract
	generation := s.generation
	logger := s.logger.With(zap.String("attempt_id", attempt))

	if err := contract.Validate(snapshot); err != nil {
		s.mu.Unlock()
		return Result{AttemptID: attempt}, err
	}
	payload, err := submission.Normalize(form, snapshot, submission.WithLogger(logger))
	if err != nil {
		s.mu.Unlock()
		return Result{AttemptID: attempt}, err
	}
	s.inFlight = true
	s.mu.Unlock()

	logger.Debug("submitting form", zap.Int("answers", payload.Len()))
	sendErr := s.engine.submitter.Submit(ctx, form.ID, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if reason := s.staleReason(ctx, generation); reason != "" {
		logger.Debug("discarding submit result", zap.String("reason", reason), zap.Error(sendErr))
		return Result{AttemptID: attempt}, ErrResultDiscarded
	}

	if sendErr == nil {
		contract.ClearErrors()
		s.submitted = true
		logger.Info("form submitted")
		return Result{AttemptID: attempt, Payload: payload}, nil
	}

	outcome := submission.MapServerError(contract, sendErr)
	logger.Warn("form submit failed",
		zap.Int("status", outcome.Status),
		zap.Bool("retryable", outcome.Retryable),
		zap.Strings("ignored_tags", outcome.Ignored),
		zap.Error(sendErr),
	)
	return Result{AttemptID: attempt}, &SubmitError{AttemptID: attempt, Outcome: outcome, Err: sendErr}
}

func (s *Session) staleReason(ctx context.Context, generation uint64) string {
	switch {
	case s.closed:
		return "closed"
	case s.generation != generation:
		return "reloaded"
	case ctx.Err() != nil:
		return "cancelled"
	default:
		return ""
	}
}

// Reload rebuilds the contract and view from def. Values for tags that still
// exist are kept; error slots start empty. An attempt in flight is
// discarded when it returns.
func (s *Session) Reload(def model.FormDefinition) error {
	next, err := s.engine.build(def)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	kept := make(submission.Values, len(s.values))
	for tag, value := range s.values {
		if _, ok := next.form.Field(tag); ok {
			kept[tag] = value
		}
	}
	s.state = next
	s.values = kept
	s.submitted = false
	s.generation++
	s.logger.Debug("form session reloaded", zap.Uint64("generation", s.generation))
	return nil
}

// Close ends the session. Later calls fail with ErrSessionClosed and an
// attempt in flight is discarded when it returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Debug("form session closed")
}
