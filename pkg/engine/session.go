package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-leadform/pkg/model"
)

// Status is the coarse state of a session.
type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
	StatusFailed     Status = "failed"
)

// Action names reported through Observer events.
const (
	ActionAnswer  = "answer"
	ActionAdvance = "advance"
	ActionRetreat = "retreat"
	ActionSubmit  = "submit"
	ActionRetry   = "retry"
)

const formTypeKey = "formType"

// State is the serialisable snapshot of a session.
type State struct {
	CatalogID string             `json:"catalogId"`
	Cursor    int                `json:"cursor"`
	Answers   model.AnswerRecord `json:"answers"`
	Status    Status             `json:"status"`
	LastError string             `json:"lastError,omitempty"`
	Attempts  int                `json:"attempts"`
}

// Option configures a Session.
type Option func(*Session)

// WithSubmitter sets the collaborator invoked by Submit.
func WithSubmitter(submitter Submitter) Option {
	return func(s *Session) {
		s.submitter = submitter
	}
}

// WithObserver registers transition observers.
func WithObserver(observers ...Observer) Option {
	return func(s *Session) {
		for _, obs := range observers {
			if obs != nil {
				s.observers = append(s.observers, obs)
			}
		}
	}
}

// WithLogger attaches a logger used for submission outcomes.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session walks one visitor through a catalog. It is owned by a single
// caller and performs no locking.
type Session struct {
	catalog   model.Catalog
	state     State
	submitter Submitter
	observers []Observer
	logger    zerolog.Logger
}

// New starts a session at the first step with every answer empty.
func New(cat model.Catalog, options ...Option) (*Session, error) {
	if cat.Len() == 0 {
		return nil, fmt.Errorf("engine: catalog %q has no steps", cat.ID)
	}
	s := &Session{
		catalog: cat,
		state: State{
			CatalogID: cat.ID,
			Answers:   model.NewAnswerRecord(cat),
			Status:    StatusEditing,
		},
		logger: zerolog.Nop(),
	}
	s.apply(options)
	return s, nil
}

// Restore rebuilds a session from a snapshot. A snapshot captured while a
// submission was in flight is restored as failed: the call it belonged to
// was abandoned.
func Restore(cat model.Catalog, state State, options ...Option) (*Session, error) {
	if cat.Len() == 0 {
		return nil, fmt.Errorf("engine: catalog %q has no steps", cat.ID)
	}
	if state.CatalogID != cat.ID {
		return nil, fmt.Errorf("%w: catalog %q does not match %q", ErrInvalidState, state.CatalogID, cat.ID)
	}
	if state.Cursor < 0 || state.Cursor >= cat.Len() {
		return nil, fmt.Errorf("%w: cursor %d outside [0,%d]", ErrInvalidState, state.Cursor, cat.Len()-1)
	}

	answers := model.NewAnswerRecord(cat)
	for key, value := range state.Answers {
		if !cat.HasKey(key) {
			return nil, fmt.Errorf("%w: unknown answer key %q", ErrInvalidState, key)
		}
		answers[key] = value
	}

	switch state.Status {
	case StatusEditing, StatusSubmitted, StatusFailed:
	case StatusSubmitting:
		state.Status = StatusFailed
		if state.LastError == "" {
			state.LastError = "submission abandoned"
		}
	case "":
		state.Status = StatusEditing
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidState, state.Status)
	}

	s := &Session{
		catalog: cat,
		state: State{
			CatalogID: cat.ID,
			Cursor:    state.Cursor,
			Answers:   answers,
			Status:    state.Status,
			LastError: state.LastError,
			Attempts:  state.Attempts,
		},
		logger: zerolog.Nop(),
	}
	s.apply(options)
	return s, nil
}

func (s *Session) apply(options []Option) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
}

// Catalog returns the catalog the session runs.
func (s *Session) Catalog() model.Catalog {
	return s.catalog
}

// State returns a copy of the current snapshot.
func (s *Session) State() State {
	out := s.state
	out.Answers = s.state.Answers.Clone()
	return out
}

// Cursor returns the index of the current step.
func (s *Session) Cursor() int {
	return s.state.Cursor
}

// Total returns the number of steps.
func (s *Session) Total() int {
	return s.catalog.Len()
}

// Status returns the session status.
func (s *Session) Status() Status {
	return s.state.Status
}

// Answers returns a copy of the answer record.
func (s *Session) Answers() model.AnswerRecord {
	return s.state.Answers.Clone()
}

// Answer returns the value stored under key.
func (s *Session) Answer(key string) string {
	return s.state.Answers[key]
}

// CurrentStep returns the step under the cursor.
func (s *Session) CurrentStep() model.StepDefinition {
	step, _ := s.catalog.StepAt(s.state.Cursor)
	return step
}

// CanAdvance reports whether the current step holds a non-blank answer.
func (s *Session) CanAdvance() bool {
	return s.canAdvanceAt(s.state.Cursor)
}

func (s *Session) canAdvanceAt(idx int) bool {
	step, ok := s.catalog.StepAt(idx)
	if !ok {
		return false
	}
	return s.state.Answers.Filled(step.AnswerKey)
}

// CanRetreat reports whether Retreat would be accepted.
func (s *Session) CanRetreat() bool {
	return s.editable() && s.state.Cursor > 0
}

// IsTerminal reports whether the cursor is on the last step.
func (s *Session) IsTerminal() bool {
	return s.state.Cursor == s.catalog.Len()-1
}

// CanSubmit reports whether Submit would reach the submitter.
func (s *Session) CanSubmit() bool {
	return s.editable() && s.IsTerminal() && s.CanAdvance()
}

func (s *Session) editable() bool {
	return s.state.Status == StatusEditing || s.state.Status == StatusFailed
}

// SetAnswer overwrites the answer stored under key. The cursor does not move.
// Editing a failed session returns it to the editing state.
func (s *Session) SetAnswer(key, value string) error {
	from := s.state.Status
	if !s.editable() {
		return s.reject(ActionAnswer, ErrNotEditable)
	}
	if !s.catalog.HasKey(key) {
		return s.reject(ActionAnswer, fmt.Errorf("%w: %q", ErrUnknownAnswerKey, key))
	}
	s.state.Answers[key] = value
	s.state.Status = StatusEditing
	s.emit(ActionAnswer, from, nil)
	return nil
}

// SetCurrentAnswer writes value to the current step's answer key.
func (s *Session) SetCurrentAnswer(value string) error {
	return s.SetAnswer(s.CurrentStep().AnswerKey, value)
}

// Advance moves to the next step when the current answer is present.
func (s *Session) Advance() error {
	from := s.state.Status
	if s.state.Status != StatusEditing {
		return s.reject(ActionAdvance, ErrNotEditable)
	}
	if s.IsTerminal() {
		return s.reject(ActionAdvance, ErrAtLastStep)
	}
	if !s.CanAdvance() {
		return s.reject(ActionAdvance, ErrValidationGate)
	}
	s.state.Cursor++
	s.emit(ActionAdvance, from, nil)
	return nil
}

// Retreat moves to the previous step. Answers are kept.
func (s *Session) Retreat() error {
	from := s.state.Status
	if !s.editable() {
		return s.reject(ActionRetreat, ErrNotEditable)
	}
	if s.state.Cursor == 0 {
		return s.reject(ActionRetreat, ErrAtFirstStep)
	}
	s.state.Cursor--
	s.state.Status = StatusEditing
	s.emit(ActionRetreat, from, nil)
	return nil
}

// Submit hands the payload to the submitter. It is accepted only on the last
// step with a non-blank answer, from the editing or failed state. Failures
// leave the session in StatusFailed and are returned wrapped in
// ErrSubmissionFailed.
func (s *Session) Submit(ctx context.Context) error {
	from := s.state.Status
	if !s.editable() {
		return s.reject(ActionSubmit, ErrNotEditable)
	}
	if !s.IsTerminal() {
		return s.reject(ActionSubmit, ErrNotTerminal)
	}
	if !s.CanAdvance() {
		return s.reject(ActionSubmit, ErrValidationGate)
	}
	if s.submitter == nil {
		return s.reject(ActionSubmit, ErrNoSubmitter)
	}

	s.state.Status = StatusSubmitting
	s.state.Attempts++

	err := ctx.Err()
	if err == nil {
		err = s.submitter.Submit(ctx, s.Payload())
	}
	if err != nil {
		s.state.Status = StatusFailed
		s.state.LastError = err.Error()
		s.logger.Warn().Err(err).
			Str("catalog", s.catalog.ID).
			Int("attempt", s.state.Attempts).
			Msg("submission failed")
		wrapped := fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
		s.emit(ActionSubmit, from, wrapped)
		return wrapped
	}

	s.state.Status = StatusSubmitted
	s.state.LastError = ""
	s.logger.Info().
		Str("catalog", s.catalog.ID).
		Int("attempt", s.state.Attempts).
		Msg("submission accepted")
	s.emit(ActionSubmit, from, nil)
	return nil
}

// Retry clears a failed submission and returns to the terminal step.
func (s *Session) Retry() error {
	from := s.state.Status
	if s.state.Status != StatusFailed {
		return s.reject(ActionRetry, ErrNotFailed)
	}
	s.state.Status = StatusEditing
	s.state.Cursor = s.catalog.Len() - 1
	s.emit(ActionRetry, from, nil)
	return nil
}

// Payload returns every answer plus the catalog's form type.
func (s *Session) Payload() Payload {
	payload := make(Payload, len(s.state.Answers)+1)
	for key, value := range s.state.Answers {
		payload[key] = value
	}
	payload[formTypeKey] = s.catalog.FormType
	return payload
}

func (s *Session) reject(action string, err error) error {
	s.emit(action, s.state.Status, err)
	return err
}

func (s *Session) emit(action string, from Status, err error) {
	if len(s.observers) == 0 {
		return
	}
	evt := Event{
		Action:    action,
		CatalogID: s.catalog.ID,
		From:      from,
		To:        s.state.Status,
		Cursor:    s.state.Cursor,
		Err:       err,
	}
	for _, obs := range s.observers {
		obs.Observe(evt)
	}
}

// Apply dispatches a named action, the shape presentation bindings receive
// from forms and prompts. For ActionAnswer, value is written to the current
// step.
func (s *Session) Apply(ctx context.Context, action, value string) error {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionAnswer:
		return s.SetCurrentAnswer(value)
	case ActionAdvance:
		return s.Advance()
	case ActionRetreat:
		return s.Retreat()
	case ActionSubmit:
		return s.Submit(ctx)
	case ActionRetry:
		return s.Retry()
	default:
		return fmt.Errorf("engine: unknown action %q", action)
	}
}

// Outcome classifies an error returned by a session method.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSubmissionFailed):
		return "failed"
	case IsRejection(err):
		return "rejected"
	default:
		return "error"
	}
}
