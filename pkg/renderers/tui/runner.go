package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/model"
	"github.com/goliatone/go-leadform/pkg/render"
)

// Runner walks a session in the terminal, one prompt per step. It never
// touches session state except through the engine's operations.
type Runner struct {
	driver PromptDriver
	theme  Theme
	labels Labels
	logger zerolog.Logger
}

// New constructs a runner backed by survey unless a driver is supplied.
func New(options ...Option) *Runner {
	r := &Runner{
		theme:  DefaultTheme(),
		labels: DefaultLabels(),
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(terminal.Stdio{})
	}
	return r
}

// Run drives s until it is submitted. It returns the payload that was sent,
// ErrAborted on interrupt, or ErrQuit when the visitor gives up after a
// failed submission.
func (r *Runner) Run(ctx context.Context, s *engine.Session) (engine.Payload, error) {
	if s == nil {
		return nil, errors.New("tui: session is nil")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		view := s.View()
		switch {
		case view.Submitted:
			if err := r.driver.Info(ctx, r.theme.InfoPrefix+r.labels.Success); err != nil {
				return nil, err
			}
			return s.Payload(), nil
		case view.Failed:
			if err := r.handleFailure(ctx, s); err != nil {
				return nil, err
			}
		default:
			if err := r.step(ctx, s, view); err != nil {
				return nil, err
			}
		}
	}
}

func (r *Runner) step(ctx context.Context, s *engine.Session, view engine.View) error {
	if err := r.driver.Info(ctx, r.theme.ProgressPrefix+FormatProgress(view)); err != nil {
		return err
	}

	value, back, err := r.ask(ctx, view)
	if err != nil {
		return err
	}
	if back {
		return r.notify(ctx, s.Retreat())
	}
	if err := s.SetCurrentAnswer(value); err != nil {
		return r.notify(ctx, err)
	}

	if !view.IsTerminal {
		return r.notify(ctx, s.Advance())
	}
	return r.confirmSubmit(ctx, s, view)
}

// ask prompts for the current step. back reports that the visitor chose to
// return to the previous step instead of answering.
func (r *Runner) ask(ctx context.Context, view engine.View) (string, bool, error) {
	step := view.Step
	if step.Kind.HasOptions() {
		options := make([]string, 0, len(step.Options)+1)
		selected := -1
		for idx, option := range step.Options {
			options = append(options, option.Label)
			if option.Selected {
				selected = idx
			}
		}
		if view.CanRetreat {
			options = append(options, r.labels.Back)
		}
		pageSize := 0
		if step.Kind == model.StepKindScale {
			pageSize = len(options)
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      step.Prompt,
			Options:      options,
			DefaultIndex: selected,
			Help:         step.Hint,
			PageSize:     pageSize,
		})
		if err != nil {
			return "", false, err
		}
		if idx < 0 || idx >= len(options) {
			return "", false, fmt.Errorf("tui: selection %d out of range", idx)
		}
		if view.CanRetreat && idx == len(options)-1 {
			return "", true, nil
		}
		return step.Options[idx].Value, false, nil
	}

	help := step.Hint
	if view.CanRetreat {
		help = strings.TrimSpace(help + " (type " + r.labels.BackInput + " to go back)")
	}

	var (
		value string
		err   error
	)
	if step.InputHint == model.InputHintTextarea {
		value, err = r.driver.TextArea(ctx, TextAreaConfig{
			Message: step.Prompt,
			Default: step.Value,
			Help:    help,
		})
	} else {
		value, err = r.driver.Input(ctx, InputConfig{
			Message: step.Prompt,
			Default: step.Value,
			Help:    help,
		})
	}
	if err != nil {
		return "", false, err
	}
	if view.CanRetreat && strings.TrimSpace(value) == r.labels.BackInput {
		return "", true, nil
	}
	return value, false, nil
}

func (r *Runner) confirmSubmit(ctx context.Context, s *engine.Session, view engine.View) error {
	if !s.CanSubmit() {
		return r.notify(ctx, engine.ErrValidationGate)
	}
	label := view.SubmitLabel
	if label == "" {
		label = "Submit"
	}
	options := []string{label, r.labels.Back}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      "Ready?",
		Options:      options,
		DefaultIndex: 0,
	})
	if err != nil {
		return err
	}
	if idx == 1 {
		// Re-ask the terminal step; its own prompt offers retreating further.
		return nil
	}
	return r.submit(ctx, s)
}

func (r *Runner) submit(ctx context.Context, s *engine.Session) error {
	err := s.Submit(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, engine.ErrSubmissionFailed) {
		r.logger.Warn().Err(err).Int("attempts", s.State().Attempts).Msg("submission failed")
		return r.driver.Info(ctx, r.theme.ErrorPrefix+render.Notice(err))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return r.notify(ctx, err)
}

// handleFailure offers the failed-submission choices.
func (r *Runner) handleFailure(ctx context.Context, s *engine.Session) error {
	options := []string{r.labels.TryAgain, r.labels.Edit, r.labels.Quit}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      "Your answers are saved. What next?",
		Options:      options,
		DefaultIndex: 0,
	})
	if err != nil {
		return err
	}
	switch idx {
	case 0:
		return r.submit(ctx, s)
	case 1:
		return r.notify(ctx, s.Retry())
	default:
		return ErrQuit
	}
}

// notify prints the visitor-facing message for rejected transitions. It only
// returns an error when printing fails.
func (r *Runner) notify(ctx context.Context, err error) error {
	if err == nil || !engine.IsRejection(err) {
		return err
	}
	msg := render.Notice(err)
	if msg == "" {
		return nil
	}
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

// FormatProgress renders the "N / M" counter for a view.
func FormatProgress(view engine.View) string {
	return fmt.Sprintf("%d / %d", view.Progress.Position, view.Progress.Total)
}
