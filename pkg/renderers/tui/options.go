package tui

import (
	"github.com/rs/zerolog"
)

// OutputFormat controls how a collected payload is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures the prefixes the runner puts in front of status lines.
type Theme struct {
	ProgressPrefix string
	InfoPrefix     string
	ErrorPrefix    string
}

// DefaultTheme returns plain ASCII prefixes.
func DefaultTheme() Theme {
	return Theme{
		ProgressPrefix: "",
		InfoPrefix:     "",
		ErrorPrefix:    "! ",
	}
}

// Labels are the navigation strings offered at each prompt.
type Labels struct {
	Back      string
	BackInput string
	TryAgain  string
	Edit      string
	Quit      string
	Success   string
}

// DefaultLabels returns the booking copy.
func DefaultLabels() Labels {
	return Labels{
		Back:      "← Back",
		BackInput: ":back",
		TryAgain:  "Try again",
		Edit:      "Edit answers",
		Quit:      "Quit",
		Success:   "You're all set! We'll review your information and send you a calendar link within 24 hours.",
	}
}

// Option configures the runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTheme overrides the status line prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithLabels overrides the navigation strings.
func WithLabels(labels Labels) Option {
	return func(r *Runner) {
		r.labels = labels
	}
}

// WithLogger attaches a logger for submission diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}
