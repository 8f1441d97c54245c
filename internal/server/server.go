// Package server exposes the marketing site and the strategy-session form
// over HTTP. Every page works without JavaScript: the step form posts back to
// the server, which drives the engine and redirects.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-leadform/internal/metrics"
	"github.com/goliatone/go-leadform/pkg/content"
	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/model"
	"github.com/goliatone/go-leadform/pkg/orchestrator"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/store"
	"github.com/goliatone/go-leadform/pkg/submission"
	"github.com/goliatone/go-leadform/pkg/themes"
)

// Config holds the listener and session settings.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	SessionTTL    time.Duration
	Secret        string
	SecureCookie  bool
	DefaultTheme  string
	ContactFormID string
}

// Option injects a collaborator.
type Option func(*Server)

// WithLogger sets the base logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets the session store. The caller keeps ownership.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithCatalog sets the catalog every session walks. The embedded
// strategy-session catalog is used otherwise.
func WithCatalog(cat model.Catalog) Option {
	return func(s *Server) {
		s.catalog = cat
		s.catalogSet = true
	}
}

// WithSubmitter sets the collaborator used for strategy-session bookings.
func WithSubmitter(sub engine.Submitter) Option {
	return func(s *Server) {
		s.submitter = sub
	}
}

// WithContactSender sets the sender used by the start-project form.
func WithContactSender(sender content.Sender) Option {
	return func(s *Server) {
		s.contact = sender
	}
}

// WithContent replaces the embedded site copy.
func WithContent(site content.Site) Option {
	return func(s *Server) {
		s.site = site
		s.siteSet = true
	}
}

// WithThemes sets the theme selector.
func WithThemes(sel *themes.Selector) Option {
	return func(s *Server) {
		s.themes = sel
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRendererOptions forwards options to the HTML renderers.
func WithRendererOptions(opts ...vanilla.Option) Option {
	return func(s *Server) {
		s.rendererOpts = append(s.rendererOpts, opts...)
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	router *mux.Router
	http   *http.Server
	logger zerolog.Logger

	store      store.Store
	ownsStore  bool
	catalog    model.Catalog
	catalogSet bool
	submitter  engine.Submitter
	contact    content.Sender
	site       content.Site
	siteSet    bool
	themes     *themes.Selector
	metrics    *metrics.Metrics

	flows        *orchestrator.Orchestrator
	pages        *vanilla.Pages
	rendererOpts []vanilla.Option

	locks *keyedMutex
	now   func() time.Time
}

// New wires a server. Missing collaborators get working defaults: the
// embedded catalog and copy, an in-memory store and a dry-run submitter.
// Sessions and step rendering go through an orchestrator.
func New(cfg Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: zerolog.Nop(),
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.applyDefaults(); err != nil {
		return nil, err
	}

	site := vanilla.Site{
		Brand: s.site.Brand,
		Title: s.site.Title,
		Year:  s.now().Year(),
	}
	for _, link := range s.site.Nav {
		site.Nav = append(site.Nav, vanilla.NavLink{Label: link.Label, Href: link.Href})
	}
	base := append([]vanilla.Option{vanilla.WithSite(site)}, s.rendererOpts...)

	flowOpts := []orchestrator.Option{
		orchestrator.WithLogger(s.logger),
		orchestrator.WithRendererOptions(base...),
	}
	if s.catalogSet {
		flowOpts = append(flowOpts,
			orchestrator.WithCatalogs(s.catalog),
			orchestrator.WithDefaultCatalog(s.catalog.ID),
		)
	}
	s.flows = orchestrator.New(flowOpts...)
	cat, err := s.flows.Catalog("")
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.catalog = cat

	pages, err := vanilla.NewPages(base...)
	if err != nil {
		return nil, fmt.Errorf("server: pages: %w", err)
	}
	s.pages = pages

	s.router = mux.NewRouter()
	s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) applyDefaults() error {
	if s.cfg.SessionTTL <= 0 {
		s.cfg.SessionTTL = 2 * time.Hour
	}
	if s.cfg.RequestTimeout <= 0 {
		s.cfg.RequestTimeout = 20 * time.Second
	}
	if s.cfg.DefaultTheme == "" {
		s.cfg.DefaultTheme = themes.DefaultVariant
	}
	if s.cfg.ContactFormID == "" {
		s.cfg.ContactFormID = "xqajpgny"
	}
	if s.cfg.Secret == "" {
		s.cfg.Secret = uuid.NewString()
	}
	if !s.siteSet {
		site, err := content.Default()
		if err != nil {
			return fmt.Errorf("server: default content: %w", err)
		}
		s.site = site
	}
	if s.store == nil {
		st, err := store.OpenBunt(":memory:")
		if err != nil {
			return fmt.Errorf("server: open store: %w", err)
		}
		s.store = st
		s.ownsStore = true
	}
	if s.submitter == nil {
		s.submitter = submission.Nop(s.logger)
	}
	if s.contact == nil {
		s.contact = submission.NopSender(s.logger)
	}
	if s.themes == nil {
		sel, err := themes.NewSelector()
		if err != nil {
			return fmt.Errorf("server: themes: %w", err)
		}
		s.themes = sel
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.requestIDMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.requestLoggingMiddleware)
	r.Use(s.timeoutMiddleware)

	r.HandleFunc("/", s.handleLanding).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/apply", s.handleApply).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/apply/form", s.handleNewSession).Methods(http.MethodGet)
	r.HandleFunc("/apply/form/{sid}", s.handleShowSession).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/apply/form/{sid}", s.handleSessionAction).Methods(http.MethodPost)
	r.HandleFunc("/start-project", s.handleStartProject).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/theme", s.handleTheme).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.FS(vanilla.AssetsFS()))),
	).Methods(http.MethodGet, http.MethodHead)

	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.cfg.Addr).Str("catalog", s.catalog.ID).Msg("starting http server")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains connections and closes a store the server opened itself.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down http server")
	err := s.http.Shutdown(ctx)
	if s.ownsStore {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
