package engine

import "errors"

var (
	// ErrValidationGate signals an advance or submit while the current step's
	// answer is empty after trimming.
	ErrValidationGate = errors.New("engine: current step has no answer")
	// ErrSubmissionFailed wraps any failure reported by the submitter. The
	// session is left in StatusFailed with every answer intact.
	ErrSubmissionFailed = errors.New("engine: submission failed")
	// ErrNotEditable is returned when a mutation arrives while the session is
	// submitting or already submitted.
	ErrNotEditable = errors.New("engine: session is not editable")
	// ErrAtFirstStep is returned by Retreat on the first step.
	ErrAtFirstStep = errors.New("engine: already at first step")
	// ErrAtLastStep is returned by Advance on the terminal step.
	ErrAtLastStep = errors.New("engine: already at last step")
	// ErrNotTerminal is returned by Submit before the terminal step.
	ErrNotTerminal = errors.New("engine: submit is only allowed on the last step")
	// ErrNotFailed is returned by Retry when no failed submission exists.
	ErrNotFailed = errors.New("engine: no failed submission to retry")
	// ErrUnknownAnswerKey is returned by SetAnswer for keys no step writes.
	ErrUnknownAnswerKey = errors.New("engine: unknown answer key")
	// ErrNoSubmitter is returned by Submit when the session has no submitter.
	ErrNoSubmitter = errors.New("engine: submitter is not configured")
	// ErrInvalidState is returned by Restore for snapshots that do not fit the
	// catalog.
	ErrInvalidState = errors.New("engine: invalid session state")
)

// IsRejection reports whether err is a guard rejection (the session is
// unchanged) rather than a submission failure.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrValidationGate),
		errors.Is(err, ErrNotEditable),
		errors.Is(err, ErrAtFirstStep),
		errors.Is(err, ErrAtLastStep),
		errors.Is(err, ErrNotTerminal),
		errors.Is(err, ErrNotFailed),
		errors.Is(err, ErrUnknownAnswerKey):
		return true
	default:
		return false
	}
}
