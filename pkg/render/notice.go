package render

import (
	"errors"

	"github.com/goliatone/go-leadform/pkg/engine"
)

// Notice returns the visitor-facing message for an engine error. Submission
// failures stay generic; the detail goes to the logs.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrSubmissionFailed):
		return "We couldn't book your session just now. Your answers are saved, please try again."
	case errors.Is(err, engine.ErrValidationGate):
		return "Please answer this question to continue."
	case errors.Is(err, engine.ErrNotEditable):
		return "This form has already been sent."
	case errors.Is(err, engine.ErrNotTerminal):
		return "Please finish every question before booking."
	case errors.Is(err, engine.ErrUnknownAnswerKey):
		return "That answer doesn't belong to this form."
	case errors.Is(err, engine.ErrAtFirstStep), errors.Is(err, engine.ErrAtLastStep), errors.Is(err, engine.ErrNotFailed):
		return ""
	default:
		return "Something went wrong. Please try again."
	}
}
