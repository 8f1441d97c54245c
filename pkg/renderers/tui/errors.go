package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrQuit is returned when the visitor walks away from a failed
	// submission.
	ErrQuit = errors.New("tui: quit before booking")
)
