package vanilla

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-leadform/pkg/render"
	rendertemplate "github.com/goliatone/go-leadform/pkg/render/template"
	gotemplate "github.com/goliatone/go-leadform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-leadform/pkg/widgets"
)

// Option configures the HTML renderers.
type Option func(*config)

type config struct {
	layout           Layout
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	widgets          *widgets.Registry
	site             Site
	labels           Labels
}

// Site is the chrome shared by every document.
type Site struct {
	Brand string    `json:"brand"`
	Title string    `json:"title"`
	Year  int       `json:"year"`
	Nav   []NavLink `json:"nav,omitempty"`
}

// NavLink is one header navigation entry.
type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Labels are the button and status strings of the step form.
type Labels struct {
	Continue   string `json:"continue"`
	Back       string `json:"back"`
	Submitting string `json:"submitting"`
	Failed     string `json:"failed"`
	TryAgain   string `json:"try_again"`
	Dismiss    string `json:"dismiss"`
	Close      string `json:"close"`
	Success    string `json:"success"`
	SuccessSub string `json:"success_sub"`
}

// DefaultLabels returns the booking form copy.
func DefaultLabels() Labels {
	return Labels{
		Continue:   "Continue",
		Back:       "Back",
		Submitting: "Booking...",
		Failed:     "We couldn't book your session just now. Your answers are saved.",
		TryAgain:   "Try again",
		Dismiss:    "Edit answers",
		Close:      "Close",
		Success:    "You're all set!",
		SuccessSub: "We'll review your information and send you a calendar link within 24 hours.",
	}
}

// WithLayout selects the presentation of the step form.
func WithLayout(layout Layout) Option {
	return func(cfg *config) {
		cfg.layout = layout
	}
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidgets overrides the widget registry.
func WithWidgets(reg *widgets.Registry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.widgets = reg
		}
	}
}

// WithSite sets the document chrome.
func WithSite(site Site) Option {
	return func(cfg *config) {
		cfg.site = site
	}
}

// WithLabels overrides the step form copy.
func WithLabels(labels Labels) Option {
	return func(cfg *config) {
		cfg.labels = labels
	}
}

func buildConfig(options []Option) (config, error) {
	cfg := config{
		layout:     LayoutPage,
		templateFS: TemplatesFS(),
		site:       Site{Brand: "Dogfood Digital", Title: "Dogfood Digital"},
		labels:     DefaultLabels(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}
	if cfg.templateRenderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return cfg, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		cfg.templateRenderer = engine
	}
	return cfg, nil
}

// shell wraps body HTML in the site document.
type shell struct {
	templates rendertemplate.TemplateRenderer
	site      Site
}

type themeData struct {
	Name       string `json:"name"`
	Variant    string `json:"variant"`
	CSSVars    string `json:"css_vars,omitempty"`
	Stylesheet string `json:"stylesheet,omitempty"`
	Logo       string `json:"logo,omitempty"`
	ToggleTo   string `json:"toggle_to"`
}

func buildThemeData(cfg *theme.RendererConfig) themeData {
	if cfg == nil {
		return themeData{Variant: "dark", ToggleTo: "light"}
	}
	data := themeData{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		CSSVars: cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		data.Stylesheet = cfg.AssetURL("stylesheet")
		data.Logo = cfg.AssetURL("logo")
	}
	data.ToggleTo = "light"
	if cfg.Variant == "light" {
		data.ToggleTo = "dark"
	}
	return data
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := strings.TrimSpace(vars[key])
		if value == "" {
			continue
		}
		parts = append(parts, key+": "+value+";")
	}
	return strings.Join(parts, " ")
}

func (s shell) document(title, body string, opts render.RenderOptions) (string, error) {
	if title == "" {
		title = s.site.Title
	}
	returnURL := opts.PageURL
	if returnURL == "" {
		returnURL = "/"
	}
	year := ""
	if s.site.Year > 0 {
		year = strconv.Itoa(s.site.Year)
	}
	return s.templates.RenderTemplate("templates/document.tmpl", map[string]any{
		"title":      title,
		"year":       year,
		"site":       s.site,
		"theme":      buildThemeData(opts.Theme),
		"body_html":  body,
		"return_url": returnURL,
	})
}
