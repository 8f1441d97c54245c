package render

import (
	"context"

	"github.com/goliatone/go-leadform/pkg/engine"
)

// Renderer turns an engine view into a response body. Every presentation of
// the form (full page, modal) is a Renderer over the same engine.View.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view engine.View, options RenderOptions) ([]byte, error)
}
