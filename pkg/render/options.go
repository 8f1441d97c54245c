package render

import (
	theme "github.com/goliatone/go-theme"
)

// RenderOptions carry per-request data that is not part of the engine view.
type RenderOptions struct {
	// Theme is the resolved theme for this visitor. Renderers fall back to
	// unstyled output when nil.
	Theme *theme.RendererConfig
	// ActionURL is where the step form posts.
	ActionURL string
	// Hidden fields are emitted inside the step form, sorted by name.
	Hidden map[string]string
	// Notice is a one-line message shown above the step, for example after a
	// rejected transition.
	Notice string
	// Errors are form-level messages.
	Errors []string
	// CloseURL is where the modal's close control leads.
	CloseURL string
	// PageURL is the address of the page being drawn; the theme toggle
	// returns here.
	PageURL string
}
