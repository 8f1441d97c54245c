package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-leadform/pkg/catalog"
	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/model"
	"github.com/goliatone/go-leadform/pkg/render"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/widgets"
)

const defaultRendererName = string(vanilla.LayoutPage)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithCatalogStore injects a prepared catalog store. Its catalogs are copied
// before decoration.
func WithCatalogStore(store *catalog.Store) Option {
	return func(o *Orchestrator) {
		o.catalogs = store
	}
}

// WithCatalogs registers in-memory catalogs.
func WithCatalogs(catalogs ...model.Catalog) Option {
	return func(o *Orchestrator) {
		o.extraCatalogs = append(o.extraCatalogs, catalogs...)
	}
}

// WithCatalogFS loads catalog documents from fsys instead of the embedded
// set.
func WithCatalogFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.catalogFS = fsys
	}
}

// WithDefaultCatalog selects the catalog used when Start gets an empty id.
func WithDefaultCatalog(id string) Option {
	return func(o *Orchestrator) {
		o.defaultCatalog = id
		o.defaultSet = true
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithRendererOptions forwards options to the default HTML renderers. Ignored
// when a registry is injected.
func WithRendererOptions(opts ...vanilla.Option) Option {
	return func(o *Orchestrator) {
		o.rendererOpts = append(o.rendererOpts, opts...)
	}
}

// WithWidgetRegistry overrides the widget registry used to decorate
// catalogs and resolve templates.
func WithWidgetRegistry(reg *widgets.Registry) Option {
	return func(o *Orchestrator) {
		o.widgets = reg
	}
}

// WithUIDecorators registers decorators that run against every catalog after
// widget resolution.
func WithUIDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithSessionOptions appends engine options applied to every session.
func WithSessionOptions(opts ...engine.Option) Option {
	return func(o *Orchestrator) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator coordinates catalog lookup, session lifecycle and rendering.
// It applies sensible defaults (embedded catalogs, page and modal renderers)
// while remaining open to dependency injection.
type Orchestrator struct {
	catalogs        *catalog.Store
	catalogFS       fs.FS
	extraCatalogs   []model.Catalog
	defaultCatalog  string
	defaultSet      bool
	registry        *render.Registry
	defaultRenderer string
	rendererOpts    []vanilla.Option
	widgets         *widgets.Registry
	decorators      []model.Decorator
	sessionOpts     []engine.Option
	logger          zerolog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Setup errors
// are reported by the first call that needs the broken dependency.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		defaultCatalog:  catalog.StrategySessionID,
		logger:          zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.initialiseErr = o.applyDefaults()
	return o
}

// Err reports a setup failure.
func (o *Orchestrator) Err() error {
	return o.initialiseErr
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// WidgetRegistry exposes the widget registry.
func (o *Orchestrator) WidgetRegistry() *widgets.Registry {
	return o.widgets
}

// Catalog returns the decorated catalog registered under id, or the default
// catalog when id is empty.
func (o *Orchestrator) Catalog(id string) (model.Catalog, error) {
	if err := o.initialiseErr; err != nil {
		return model.Catalog{}, err
	}
	if id == "" {
		id = o.defaultCatalog
	}
	cat, ok := o.catalogs.Catalog(id)
	if !ok {
		return model.Catalog{}, fmt.Errorf("orchestrator: catalog %q not found (available: %v)", id, o.catalogs.IDs())
	}
	return cat, nil
}

// CatalogIDs lists the registered catalogs.
func (o *Orchestrator) CatalogIDs() []string {
	return o.catalogs.IDs()
}

// Start opens a new session on catalogID. extra options are applied after
// the orchestrator-wide ones.
func (o *Orchestrator) Start(ctx context.Context, catalogID string, extra ...engine.Option) (*engine.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := o.Catalog(catalogID)
	if err != nil {
		return nil, err
	}
	sess, err := engine.New(cat, o.sessionOptions(extra)...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: start session: %w", err)
	}
	return sess, nil
}

// Restore rebuilds a session from a stored snapshot.
func (o *Orchestrator) Restore(ctx context.Context, state engine.State, extra ...engine.Option) (*engine.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := o.Catalog(state.CatalogID)
	if err != nil {
		return nil, err
	}
	sess, err := engine.Restore(cat, state, o.sessionOptions(extra)...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: restore session: %w", err)
	}
	return sess, nil
}

func (o *Orchestrator) sessionOptions(extra []engine.Option) []engine.Option {
	opts := make([]engine.Option, 0, len(o.sessionOpts)+len(extra)+1)
	opts = append(opts, engine.WithLogger(o.logger))
	opts = append(opts, o.sessionOpts...)
	return append(opts, extra...)
}

// Request describes one render of a session.
type Request struct {
	// Session is drawn at its current step. Required unless View is set.
	Session *engine.Session

	// View bypasses the session when the caller already holds a snapshot.
	View *engine.View

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// RenderOptions carries per-request data such as hidden fields, notices
	// and the theme.
	RenderOptions render.RenderOptions
}

// Render draws the request's session with the selected renderer.
func (o *Orchestrator) Render(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	var view engine.View
	switch {
	case req.View != nil:
		view = *req.View
	case req.Session != nil:
		view = req.Session.View()
	default:
		return nil, errors.New("orchestrator: session or view is required")
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	output, err := renderer.Render(ctx, view, req.RenderOptions)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() error {
	if o.widgets == nil {
		o.widgets = widgets.NewRegistry()
	}

	if err := o.loadCatalogs(); err != nil {
		return err
	}
	decorators := append([]model.Decorator{o.widgets}, o.decorators...)
	if err := o.catalogs.Decorate(decorators...); err != nil {
		return fmt.Errorf("orchestrator: decorate catalogs: %w", err)
	}

	if o.registry == nil {
		o.registry = render.NewRegistry()
		for _, layout := range []vanilla.Layout{vanilla.LayoutPage, vanilla.LayoutModal} {
			opts := append([]vanilla.Option{vanilla.WithLayout(layout), vanilla.WithWidgets(o.widgets)}, o.rendererOpts...)
			renderer, err := vanilla.New(opts...)
			if err != nil {
				return fmt.Errorf("orchestrator: %s renderer: %w", layout, err)
			}
			if err := o.registry.Register(renderer); err != nil {
				return fmt.Errorf("orchestrator: register %s renderer: %w", layout, err)
			}
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	return nil
}

// loadCatalogs copies every source into a private store so decoration never
// reaches the caller's store or the package-level embedded one.
func (o *Orchestrator) loadCatalogs() error {
	source := o.catalogs
	if source == nil && (o.catalogFS != nil || len(o.extraCatalogs) == 0) {
		fsys := o.catalogFS
		if fsys == nil {
			fsys = catalog.EmbeddedFS()
		}
		loaded, err := catalog.LoadFS(fsys)
		if err != nil {
			return fmt.Errorf("orchestrator: load catalogs: %w", err)
		}
		source = loaded
	}

	var all []model.Catalog
	for _, id := range source.IDs() {
		cat, _ := source.Catalog(id)
		all = append(all, cat)
	}
	all = append(all, o.extraCatalogs...)

	store, err := catalog.NewStore(all...)
	if err != nil {
		return fmt.Errorf("orchestrator: catalogs: %w", err)
	}
	if store.Empty() {
		return errors.New("orchestrator: no catalogs registered")
	}
	o.catalogs = store
	if _, ok := store.Catalog(o.defaultCatalog); !ok && !o.defaultSet {
		o.defaultCatalog = store.IDs()[0]
	}
	return nil
}
