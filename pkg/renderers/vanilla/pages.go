package vanilla

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-leadform/pkg/render"
)

// Page names the site pages bundled under templates/pages.
type Page string

const (
	PageLanding      Page = "landing"
	PageApply        Page = "apply"
	PageStartProject Page = "start-project"
)

// Pages renders the marketing pages into the shared document shell.
type Pages struct {
	cfg   config
	shell shell
}

// NewPages constructs the site page renderer. Layout options are ignored.
func NewPages(options ...Option) (*Pages, error) {
	cfg, err := buildConfig(options)
	if err != nil {
		return nil, err
	}
	return &Pages{
		cfg:   cfg,
		shell: shell{templates: cfg.templateRenderer, site: cfg.site},
	}, nil
}

// ContentType reports the MIME type of the rendered output.
func (p *Pages) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws page with data. Keys ending in _html are inserted unescaped
// and must already be trusted markup.
func (p *Pages) Render(ctx context.Context, page Page, title string, data map[string]any, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(string(page))
	if name == "" || strings.ContainsAny(name, "/\\.") {
		return nil, fmt.Errorf("vanilla pages: invalid page %q", page)
	}

	payload := make(map[string]any, len(data)+4)
	for key, value := range data {
		payload[key] = value
	}
	payload["page"] = name
	payload["notice"] = opts.Notice
	payload["errors"] = opts.Errors
	payload["hidden"] = render.SortedHiddenFields(opts.Hidden)

	body, err := p.cfg.templateRenderer.RenderTemplate("templates/pages/"+name+".tmpl", payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla pages: render %s: %w", name, err)
	}
	doc, err := p.shell.document(title, body, opts)
	if err != nil {
		return nil, fmt.Errorf("vanilla pages: render document: %w", err)
	}
	return []byte(doc), nil
}
