package leadform

import (
	"context"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/orchestrator"
	"github.com/goliatone/go-leadform/pkg/render"
)

// RenderOptions carries per-request data renderers need beyond the session
// view, such as hidden fields, notices and the resolved theme.
type RenderOptions = render.RenderOptions

// Session is one visitor's walk through a catalog.
type Session = engine.Session

// Payload is the flat record sent on submission.
type Payload = engine.Payload

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// StartSession opens a session on the default catalog (the strategy-session
// form unless options say otherwise).
func StartSession(ctx context.Context, options ...orchestrator.Option) (*Session, error) {
	return orchestrator.New(options...).Start(ctx, "")
}

// RenderHTML draws the session's current step with the named renderer
// ("page" or "modal" by default). An empty name selects the page layout.
func RenderHTML(ctx context.Context, sess *Session, rendererName string, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Render(ctx, orchestrator.Request{
		Session:       sess,
		Renderer:      rendererName,
		RenderOptions: opts,
	})
}
