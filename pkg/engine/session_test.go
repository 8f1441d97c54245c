package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-leadform/pkg/catalog"
	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/model"
)

var validAnswers = map[string]string{
	"name":               "Ava",
	"email":              "a@b.com",
	"country":            "Portugal",
	"productStage":       "Have a prototype",
	"businessType":       "New software product",
	"budget":             "$15,000 - $30,000",
	"hasDocumentation":   "Yes, I have a pitch deck",
	"productDescription": "A scheduling tool for clinics.",
	"revenueStatus":      "In beta with early users",
	"revenueGoal":        "$10k - $50k MRR",
	"startTimeline":      "Within 1 month",
	"buildPreference":    "Not sure yet, need guidance",
	"feelingScale":       "8",
	"howDidYouHear":      "Podcast/Interview",
	"commitment":         "Yes",
}

type recordingSubmitter struct {
	calls    []engine.Payload
	failWith error
}

func (r *recordingSubmitter) Submit(_ context.Context, payload engine.Payload) error {
	r.calls = append(r.calls, payload)
	return r.failWith
}

func newSession(t *testing.T, opts ...engine.Option) *engine.Session {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	s, err := engine.New(cat, opts...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func walkToEnd(t *testing.T, s *engine.Session) {
	t.Helper()
	for {
		step := s.CurrentStep()
		if err := s.SetAnswer(step.AnswerKey, validAnswers[step.AnswerKey]); err != nil {
			t.Fatalf("set %s: %v", step.AnswerKey, err)
		}
		if s.IsTerminal() {
			return
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("advance from %s: %v", step.AnswerKey, err)
		}
	}
}

func TestNew_InitialState(t *testing.T) {
	s := newSession(t)

	if s.Cursor() != 0 || s.Total() != 15 {
		t.Fatalf("unexpected start: cursor=%d total=%d", s.Cursor(), s.Total())
	}
	if s.Status() != engine.StatusEditing {
		t.Fatalf("expected editing, got %s", s.Status())
	}
	answers := s.Answers()
	if len(answers) != 15 {
		t.Fatalf("expected 15 answer keys, got %d", len(answers))
	}
	for key, value := range answers {
		if value != "" {
			t.Fatalf("answer %s should start empty, got %q", key, value)
		}
	}
	if s.CanAdvance() || s.CanRetreat() {
		t.Fatalf("fresh session should not advance or retreat")
	}
}

func TestNew_EmptyCatalog(t *testing.T) {
	if _, err := engine.New(model.Catalog{ID: "empty"}); err == nil {
		t.Fatalf("expected error for catalog without steps")
	}
}

func TestCanAdvance_TrimmedValue(t *testing.T) {
	s := newSession(t)

	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"\t\n", false},
		{"A", true},
		{"  Ava  ", true},
		{"0", true},
	}
	for _, tc := range cases {
		if err := s.SetCurrentAnswer(tc.value); err != nil {
			t.Fatalf("set %q: %v", tc.value, err)
		}
		if got := s.CanAdvance(); got != tc.want {
			t.Fatalf("CanAdvance(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestAdvance_RejectedOnEmptyAnswer(t *testing.T) {
	s := newSession(t)
	for i := 0; i < 3; i++ {
		step := s.CurrentStep()
		_ = s.SetAnswer(step.AnswerKey, validAnswers[step.AnswerKey])
		if err := s.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if s.CurrentStep().AnswerKey != "productStage" {
		t.Fatalf("expected productStage at cursor 3, got %s", s.CurrentStep().AnswerKey)
	}

	err := s.Advance()
	if !errors.Is(err, engine.ErrValidationGate) {
		t.Fatalf("expected ErrValidationGate, got %v", err)
	}
	if s.Cursor() != 3 {
		t.Fatalf("cursor moved to %d", s.Cursor())
	}
}

func TestCursorStaysInRange(t *testing.T) {
	s := newSession(t)

	if err := s.Retreat(); !errors.Is(err, engine.ErrAtFirstStep) {
		t.Fatalf("expected ErrAtFirstStep, got %v", err)
	}
	if s.Cursor() != 0 {
		t.Fatalf("cursor left range: %d", s.Cursor())
	}

	walkToEnd(t, s)
	if s.Cursor() != s.Total()-1 {
		t.Fatalf("expected terminal cursor, got %d", s.Cursor())
	}
	if err := s.Advance(); !errors.Is(err, engine.ErrAtLastStep) {
		t.Fatalf("expected ErrAtLastStep, got %v", err)
	}
	if s.Cursor() != s.Total()-1 {
		t.Fatalf("cursor left range: %d", s.Cursor())
	}
}

func TestRetreatPreservesAnswers(t *testing.T) {
	s := newSession(t)
	walkToEnd(t, s)
	before := s.Answers()

	for s.Cursor() > 0 {
		if err := s.Retreat(); err != nil {
			t.Fatalf("retreat: %v", err)
		}
	}
	for !s.IsTerminal() {
		if err := s.Advance(); err != nil {
			t.Fatalf("advance at %d: %v", s.Cursor(), err)
		}
	}

	if diff := cmp.Diff(before, s.Answers()); diff != "" {
		t.Fatalf("answers changed across navigation (-want +got):\n%s", diff)
	}
}

func TestSetAnswer_UnknownKey(t *testing.T) {
	s := newSession(t)
	err := s.SetAnswer("phone", "123")
	if !errors.Is(err, engine.ErrUnknownAnswerKey) {
		t.Fatalf("expected ErrUnknownAnswerKey, got %v", err)
	}
	if s.Cursor() != 0 {
		t.Fatalf("cursor moved")
	}
}

func TestSetAnswer_DoesNotMoveCursor(t *testing.T) {
	s := newSession(t)
	if err := s.SetAnswer("commitment", "Yes"); err != nil {
		t.Fatalf("set answer: %v", err)
	}
	if s.Cursor() != 0 || s.Answer("commitment") != "Yes" {
		t.Fatalf("unexpected state cursor=%d commitment=%q", s.Cursor(), s.Answer("commitment"))
	}
}

func TestSubmit_BeforeTerminalRejected(t *testing.T) {
	sub := &recordingSubmitter{}
	s := newSession(t, engine.WithSubmitter(sub))
	_ = s.SetCurrentAnswer("Ava")

	if err := s.Submit(context.Background()); !errors.Is(err, engine.ErrNotTerminal) {
		t.Fatalf("expected ErrNotTerminal, got %v", err)
	}
	if len(sub.calls) != 0 {
		t.Fatalf("submitter called before terminal step")
	}
}

func TestSubmit_EmptyTerminalAnswerRejected(t *testing.T) {
	sub := &recordingSubmitter{}
	s := newSession(t, engine.WithSubmitter(sub))
	walkToEnd(t, s)
	_ = s.SetCurrentAnswer(" ")

	if err := s.Submit(context.Background()); !errors.Is(err, engine.ErrValidationGate) {
		t.Fatalf("expected ErrValidationGate, got %v", err)
	}
	if len(sub.calls) != 0 || s.Status() != engine.StatusEditing {
		t.Fatalf("rejected submit changed state: calls=%d status=%s", len(sub.calls), s.Status())
	}
}

func TestSubmit_FullWalkSucceeds(t *testing.T) {
	sub := &recordingSubmitter{}
	s := newSession(t, engine.WithSubmitter(sub))
	walkToEnd(t, s)

	if !s.CanSubmit() {
		t.Fatalf("expected CanSubmit on completed terminal step")
	}
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.Status() != engine.StatusSubmitted {
		t.Fatalf("expected submitted, got %s", s.Status())
	}
	if len(sub.calls) != 1 {
		t.Fatalf("expected one submission, got %d", len(sub.calls))
	}

	want := engine.Payload{"formType": "Strategy Session Booking"}
	for key, value := range validAnswers {
		want[key] = value
	}
	if diff := cmp.Diff(want, sub.calls[0]); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if len(sub.calls[0].Keys()) != 16 {
		t.Fatalf("expected 16 payload keys, got %d", len(sub.calls[0].Keys()))
	}

	if err := s.SetCurrentAnswer("No"); !errors.Is(err, engine.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable after submit, got %v", err)
	}
	if err := s.Retreat(); !errors.Is(err, engine.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable on retreat, got %v", err)
	}
	if err := s.Submit(context.Background()); !errors.Is(err, engine.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable on second submit, got %v", err)
	}
}

func TestSubmit_FailureKeepsAnswersAndAllowsResubmit(t *testing.T) {
	boom := errors.New("status 500")
	sub := &recordingSubmitter{failWith: boom}
	s := newSession(t, engine.WithSubmitter(sub))
	walkToEnd(t, s)
	before := s.Answers()

	err := s.Submit(context.Background())
	if !errors.Is(err, engine.ErrSubmissionFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped submission failure, got %v", err)
	}
	if s.Status() != engine.StatusFailed {
		t.Fatalf("expected failed, got %s", s.Status())
	}
	if s.State().LastError == "" {
		t.Fatalf("expected last error to be recorded")
	}
	if diff := cmp.Diff(before, s.Answers()); diff != "" {
		t.Fatalf("answers changed after failure (-want +got):\n%s", diff)
	}

	sub.failWith = nil
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if s.Status() != engine.StatusSubmitted || len(sub.calls) != 2 {
		t.Fatalf("expected submitted after second attempt: status=%s calls=%d", s.Status(), len(sub.calls))
	}
	if s.State().Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", s.State().Attempts)
	}
}

func TestRetry(t *testing.T) {
	sub := &recordingSubmitter{failWith: errors.New("offline")}
	s := newSession(t, engine.WithSubmitter(sub))

	if err := s.Retry(); !errors.Is(err, engine.ErrNotFailed) {
		t.Fatalf("expected ErrNotFailed, got %v", err)
	}

	walkToEnd(t, s)
	_ = s.Submit(context.Background())
	if err := s.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.Status() != engine.StatusEditing || !s.IsTerminal() {
		t.Fatalf("retry should land on editable terminal step: status=%s cursor=%d", s.Status(), s.Cursor())
	}
	if s.State().LastError == "" {
		t.Fatalf("retry should keep last error for display")
	}
}

func TestFailedSessionCanBeEdited(t *testing.T) {
	sub := &recordingSubmitter{failWith: errors.New("offline")}
	s := newSession(t, engine.WithSubmitter(sub))
	walkToEnd(t, s)
	_ = s.Submit(context.Background())

	if err := s.Retreat(); err != nil {
		t.Fatalf("retreat from failed: %v", err)
	}
	if s.Status() != engine.StatusEditing {
		t.Fatalf("expected editing after retreat, got %s", s.Status())
	}
}

func TestSubmit_CancelledContext(t *testing.T) {
	sub := &recordingSubmitter{}
	s := newSession(t, engine.WithSubmitter(sub))
	walkToEnd(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Submit(ctx)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, engine.ErrSubmissionFailed) {
		t.Fatalf("expected cancelled submission failure, got %v", err)
	}
	if len(sub.calls) != 0 {
		t.Fatalf("submitter called with cancelled context")
	}
	if s.Status() != engine.StatusFailed {
		t.Fatalf("expected failed, got %s", s.Status())
	}
}

func TestSubmit_NoSubmitter(t *testing.T) {
	s := newSession(t)
	walkToEnd(t, s)
	if err := s.Submit(context.Background()); !errors.Is(err, engine.ErrNoSubmitter) {
		t.Fatalf("expected ErrNoSubmitter, got %v", err)
	}
	if s.Status() != engine.StatusEditing {
		t.Fatalf("status changed: %s", s.Status())
	}
}

func TestObserverReceivesTransitions(t *testing.T) {
	var events []engine.Event
	s := newSession(t, engine.WithObserver(engine.ObserverFunc(func(evt engine.Event) {
		events = append(events, evt)
	})))

	_ = s.Advance()
	_ = s.SetCurrentAnswer("Ava")
	_ = s.Advance()

	got := make([]string, 0, len(events))
	for _, evt := range events {
		got = append(got, evt.Action+":"+engine.Outcome(evt.Err))
	}
	want := []string{"advance:rejected", "answer:ok", "advance:ok"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if events[2].Cursor != 1 {
		t.Fatalf("expected cursor 1 after advance, got %d", events[2].Cursor)
	}
}

func TestRestore(t *testing.T) {
	cat := catalog.MustDefault()
	s := newSession(t)
	walkToEnd(t, s)
	state := s.State()

	restored, err := engine.Restore(cat, state)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if diff := cmp.Diff(state, restored.State()); diff != "" {
		t.Fatalf("restored state mismatch (-want +got):\n%s", diff)
	}

	state.Status = engine.StatusSubmitting
	restored, err = engine.Restore(cat, state)
	if err != nil {
		t.Fatalf("restore submitting: %v", err)
	}
	if restored.Status() != engine.StatusFailed {
		t.Fatalf("in-flight snapshot should restore as failed, got %s", restored.Status())
	}

	bad := []engine.State{
		{CatalogID: "other", Answers: state.Answers},
		{CatalogID: cat.ID, Cursor: 15},
		{CatalogID: cat.ID, Cursor: -1},
		{CatalogID: cat.ID, Answers: model.AnswerRecord{"phone": "1"}},
		{CatalogID: cat.ID, Status: "paused"},
	}
	for i, st := range bad {
		if _, err := engine.Restore(cat, st); !errors.Is(err, engine.ErrInvalidState) {
			t.Fatalf("case %d: expected ErrInvalidState, got %v", i, err)
		}
	}
}

func TestView(t *testing.T) {
	s := newSession(t)
	view := s.View()
	if view.Step.AnswerKey != "name" || view.Progress.Position != 1 || view.Progress.Total != 15 {
		t.Fatalf("unexpected first view: %#v", view)
	}
	if view.CanRetreat || view.CanAdvance || view.IsTerminal {
		t.Fatalf("unexpected flags on first view: %#v", view)
	}

	walkToEnd(t, s)
	if err := s.Retreat(); err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if err := s.Retreat(); err != nil {
		t.Fatalf("retreat: %v", err)
	}
	view = s.View()
	if view.Step.Kind != model.StepKindScale {
		t.Fatalf("expected scale step, got %s", view.Step.Kind)
	}
	selected := make([]string, 0)
	for _, opt := range view.Step.Options {
		if opt.Selected {
			selected = append(selected, opt.Value)
		}
	}
	if diff := cmp.Diff([]string{"8"}, selected); diff != "" {
		t.Fatalf("selected options mismatch (-want +got):\n%s", diff)
	}
	if view.Progress.Position != 13 || view.Progress.Percent != 86 {
		t.Fatalf("progress mismatch: %#v", view.Progress)
	}
}

func TestApply(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	if err := s.Apply(ctx, "answer", "Ava"); err != nil {
		t.Fatalf("apply answer: %v", err)
	}
	if err := s.Apply(ctx, " Advance ", ""); err != nil {
		t.Fatalf("apply advance: %v", err)
	}
	if s.Cursor() != 1 {
		t.Fatalf("expected cursor 1, got %d", s.Cursor())
	}
	if err := s.Apply(ctx, "jump", ""); err == nil {
		t.Fatalf("expected unknown action error")
	}
}
