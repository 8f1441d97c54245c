package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/model"
	"github.com/goliatone/go-leadform/pkg/render"
	"github.com/goliatone/go-leadform/pkg/widgets"
)

// Layout chooses how the step form is framed.
type Layout string

const (
	// LayoutPage draws the form as a full document at its own address.
	LayoutPage Layout = "page"
	// LayoutModal draws the form as an overlay fragment, for embedding on
	// another page.
	LayoutModal Layout = "modal"
)

// Valid reports whether the layout is known.
func (l Layout) Valid() bool {
	return l == LayoutPage || l == LayoutModal
}

// Renderer draws engine views as server-rendered HTML forms that work without
// JavaScript. Both layouts share the step and widget templates.
type Renderer struct {
	cfg   config
	shell shell
}

// New constructs the HTML step renderer.
func New(options ...Option) (*Renderer, error) {
	cfg, err := buildConfig(options)
	if err != nil {
		return nil, err
	}
	if !cfg.layout.Valid() {
		return nil, fmt.Errorf("vanilla renderer: unknown layout %q", cfg.layout)
	}
	return &Renderer{
		cfg:   cfg,
		shell: shell{templates: cfg.templateRenderer, site: cfg.site},
	}, nil
}

// Name returns the layout so both variants can sit in one render.Registry.
func (r *Renderer) Name() string {
	return string(r.cfg.layout)
}

// ContentType reports the MIME type of the rendered output.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Layout reports the configured framing.
func (r *Renderer) Layout() Layout {
	return r.cfg.layout
}

// Render produces HTML for the view. The page layout returns a full document;
// the modal layout returns a fragment.
func (r *Renderer) Render(ctx context.Context, view engine.View, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := r.cfg.labels
	data := r.formData(view, opts, labels)

	if !view.Submitted {
		control, err := r.renderControl(view)
		if err != nil {
			return nil, err
		}
		data["control_html"] = control
	}

	step, err := r.cfg.templateRenderer.RenderTemplate("templates/step.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render step: %w", err)
	}
	data["step_html"] = step

	body, err := r.cfg.templateRenderer.RenderTemplate(r.frameTemplate(opts), data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render %s: %w", r.cfg.layout, err)
	}

	if r.cfg.layout == LayoutModal {
		return []byte(body), nil
	}
	doc, err := r.shell.document(view.Title, body, opts)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render document: %w", err)
	}
	return []byte(doc), nil
}

func (r *Renderer) formData(view engine.View, opts render.RenderOptions, labels Labels) map[string]any {
	submitLabel := strings.TrimSpace(view.SubmitLabel)
	if submitLabel == "" {
		submitLabel = "Submit"
	}
	closeURL := opts.CloseURL
	if closeURL == "" {
		closeURL = "/"
	}
	hasOptions := len(view.Step.Options) > 0

	return map[string]any{
		"view":              view,
		"labels":            labels,
		"submit_label":      submitLabel,
		"action_url":        opts.ActionURL,
		"hidden":            render.SortedHiddenFields(opts.Hidden),
		"notice":            opts.Notice,
		"errors":            opts.Errors,
		"close_url":         closeURL,
		"has_options":       hasOptions,
		"continue_disabled": hasOptions && !view.CanAdvance,
		"submit_disabled":   hasOptions && !view.CanSubmit,
		"show_continue":     !view.IsTerminal,
		"show_submit":       view.IsTerminal,
		"input_id":          "step-" + view.Step.AnswerKey,
		"theme":             buildThemeData(opts.Theme),
	}
}

func (r *Renderer) renderControl(view engine.View) (string, error) {
	widget := r.widgetFor(view.Step)
	data := map[string]any{
		"step":     view.Step,
		"input_id": "step-" + view.Step.AnswerKey,
		"disabled": view.Submitting,
	}
	out, err := r.cfg.templateRenderer.RenderTemplate("templates/widgets/"+widget+".tmpl", data)
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render widget %q: %w", widget, err)
	}
	return out, nil
}

// widgetFor picks a widget that has a template in the bundle. Unknown widget
// names fall back to the registry's choice for the step kind.
func (r *Renderer) widgetFor(step engine.StepView) string {
	if name := strings.TrimSpace(step.Widget); name != "" && r.hasWidget(name) {
		return name
	}
	def := model.StepDefinition{Kind: step.Kind, InputHint: step.InputHint}
	if name, ok := r.cfg.widgets.Resolve(def); ok && r.hasWidget(name) {
		return name
	}
	if step.Kind.HasOptions() {
		return widgets.WidgetOptionList
	}
	return widgets.WidgetTextInput
}

func (r *Renderer) hasWidget(name string) bool {
	if strings.ContainsAny(name, "/\\.") {
		return false
	}
	_, err := fs.Stat(r.cfg.templateFS, "templates/widgets/"+name+".tmpl")
	return err == nil
}

// frameTemplate honours a theme partial for the layout when the bundle has
// it.
func (r *Renderer) frameTemplate(opts render.RenderOptions) string {
	fallback := "templates/" + string(r.cfg.layout) + ".tmpl"
	if opts.Theme == nil {
		return fallback
	}
	name := strings.TrimSpace(opts.Theme.Partials["layout."+string(r.cfg.layout)])
	if name == "" {
		return fallback
	}
	if _, err := fs.Stat(r.cfg.templateFS, name); err != nil {
		return fallback
	}
	return name
}
